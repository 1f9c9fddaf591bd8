package timeentry_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/timhq/tim/internal"
	"github.com/timhq/tim/internal/timeentry"
)

func TestTimeEntry(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "TimeEntry Suite")
}

var _ = Describe("Hours", func() {
	Describe("ComputeHours", func() {
		It("should compute the duration between start and end", func() {
			hours, err := timeentry.ComputeHours("2025-01-15", "09:00", "17:30")
			Expect(err).ToNot(HaveOccurred())
			Expect(hours).To(BeNumerically("~", 8.5, 1e-9))
		})

		It("should reject an end time before the start time", func() {
			_, err := timeentry.ComputeHours("2025-01-15", "17:00", "09:00")
			Expect(err).To(HaveOccurred())
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeTimeCalculation))
		})

		It("should reject an end time equal to the start time", func() {
			_, err := timeentry.ComputeHours("2025-01-15", "09:00", "09:00")
			Expect(err).To(HaveOccurred())
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeTimeCalculation))
		})
	})

	Describe("RoundToHalfHour", func() {
		It("should round to the nearest half hour", func() {
			Expect(timeentry.RoundToHalfHour(1.3)).To(Equal(1.5))
			Expect(timeentry.RoundToHalfHour(1.2)).To(Equal(1.0))
			Expect(timeentry.RoundToHalfHour(1.75)).To(Equal(2.0))
			Expect(timeentry.RoundToHalfHour(0.6)).To(Equal(0.5))
		})

		It("should be idempotent on already rounded values", func() {
			for _, v := range []float64{0.5, 1.0, 1.5, 2.0, 7.5, 8.0} {
				Expect(timeentry.RoundToHalfHour(v)).To(Equal(v))
			}
		})
	})

	Describe("ValidateAndRound", func() {
		It("should round valid raw hours", func() {
			rounded, err := timeentry.ValidateAndRound(1.3)
			Expect(err).ToNot(HaveOccurred())
			Expect(rounded).To(Equal(1.5))
		})

		It("should accept exactly the minimum", func() {
			rounded, err := timeentry.ValidateAndRound(0.5)
			Expect(err).ToNot(HaveOccurred())
			Expect(rounded).To(Equal(0.5))
		})

		It("should reject raw hours below the minimum even when they would round up", func() {
			_, err := timeentry.ValidateAndRound(0.4)
			Expect(err).To(HaveOccurred())
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeMinimumHours))
		})

		It("should reject zero hours", func() {
			_, err := timeentry.ValidateAndRound(0)
			Expect(err).To(HaveOccurred())
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeMinimumHours))
		})
	})
})
