package report_test

import (
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/timhq/tim/internal/report"
)

var _ = Describe("WriteCSV", func() {
	It("should emit only the header for an empty set", func() {
		out := report.WriteCSV(nil)
		Expect(out).To(Equal("Date,User,Customer,Hours,Hourly Rate,Earnings,Description,Status"))
	})

	It("should render one line per row with the description quoted", func() {
		rows := []report.EntryRow{
			{Date: "2025-01-10", UserName: "Zoe", CustomerName: "Acme", Hours: 8, HourlyRate: 100, Description: "API work", Status: "approved"},
		}

		out := report.WriteCSV(rows)
		lines := strings.Split(out, "\n")
		Expect(lines).To(HaveLen(2))
		Expect(lines[1]).To(Equal(`2025-01-10,Zoe,Acme,8,100,800,"API work",approved`))
	})

	It("should double embedded quotes in the description", func() {
		rows := []report.EntryRow{
			{Date: "2025-01-10", UserName: "Zoe", CustomerName: "Acme", Hours: 1.5, HourlyRate: 80, Description: `fixed "urgent" bug`, Status: "draft"},
		}

		out := report.WriteCSV(rows)
		Expect(out).To(ContainSubstring(`"fixed ""urgent"" bug"`))
		Expect(out).To(ContainSubstring("1.5,80,120"))
	})

	It("should format whole numbers without a decimal point", func() {
		rows := []report.EntryRow{
			{Date: "2025-01-10", Hours: 2, HourlyRate: 95.5, Description: "", Status: "draft"},
		}

		out := report.WriteCSV(rows)
		Expect(out).To(ContainSubstring("2,95.5,191"))
	})
})
