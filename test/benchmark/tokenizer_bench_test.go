package benchmark

import (
	"fmt"
	"strings"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/CHM-Help-Viewer/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/CHM-Help-Viewer/internal/markup"
)

var sampleTexts = map[string]string{
	"short": "Click Print to send the current topic to the printer",
	"medium": `The calendar window shows one week at a time. Double-click a day to add an
        appointment, or drag an existing appointment to move it. Reminders are raised
        fifteen minutes before each appointment unless the default is changed under
        Tools > Options > Calendar. Recurring appointments are marked with an arrow.`,
	"long": strings.Repeat(`Help topics are compiled into a single archive together with the
        contents file, the keyword index and any images they reference. The viewer reads
        the contents file to build its sidebar and indexes every page so that words typed
        into the search box are matched as prefixes against the words of each topic. `, 20),
}

func BenchmarkTokenize(b *testing.B) {
	for name, text := range sampleTexts {
		b.Run(name, func(b *testing.B) {
			b.ReportAllocs()
			b.SetBytes(int64(len(text)))
			for i := 0; i < b.N; i++ {
				_ = tokenizer.Tokenize(text)
			}
		})
	}
}

func BenchmarkTokenizeParallel(b *testing.B) {
	text := sampleTexts["medium"]
	b.ReportAllocs()
	b.SetBytes(int64(len(text)))
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			_ = tokenizer.Terms(text)
		}
	})
}

func BenchmarkTokenizeVaryingSize(b *testing.B) {
	sizes := []int{10, 100, 500, 1000, 5000}
	baseWord := "compiled help topic index contents "
	for _, size := range sizes {
		text := strings.Repeat(baseWord, size/len(baseWord)+1)[:size]
		b.Run(fmt.Sprintf("bytes_%d", size), func(b *testing.B) {
			b.ReportAllocs()
			b.SetBytes(int64(len(text)))
			for i := 0; i < b.N; i++ {
				_ = tokenizer.Tokenize(text)
			}
		})
	}
}

func BenchmarkExtractText(b *testing.B) {
	html := "<html><head><title>Calendar</title><style>p{}</style></head><body>" +
		strings.Repeat("<p>Drag an <b>appointment</b> to move it &amp; keep reminders.</p>", 200) +
		"</body></html>"
	b.ReportAllocs()
	b.SetBytes(int64(len(html)))
	for i := 0; i < b.N; i++ {
		_ = markup.ExtractText(html)
	}
}
