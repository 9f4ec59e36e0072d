package extraction

import (
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Extractor", func() {
	var (
		extractor *Extractor
		raw       string
		ev        *Evaluation
		result    Result
	)

	BeforeEach(func() {
		var err error
		extractor, err = New(DefaultConfig())
		Expect(err).NotTo(HaveOccurred())
	})

	JustBeforeEach(func() {
		ev = extractor.Evaluate(raw)
		result = ev.Result()
	})

	When("the exact label is followed by a date", func() {
		BeforeEach(func() {
			raw = "Faktura nr 123/09/2024 sprzedaz 2024-09-01 ... Data wystawienia: 2024-09-10 garbage"
		})

		It("should find the invoice number", func() {
			Expect(result.InvoiceNumber).To(Equal(FoundField("123/09/2024")))
		})

		It("should take the date after the label over earlier dates", func() {
			Expect(result.IssueDate).To(Equal(FoundField("2024-09-10")))
			Expect(result.DateSource).To(Equal(SourceExactLabel))
		})

		It("should not ask for another pass", func() {
			Expect(ev.LabelSeenDateUnresolved()).To(BeFalse())
		})
	})

	When("only fuzzy labels are present", func() {
		BeforeEach(func() {
			raw = "WYSTAWIONO DNIA TOWAR ABC 2024.09.10"
		})

		It("should pick the date nearest a label", func() {
			Expect(result.IssueDate).To(Equal(FoundField("2024.09.10")))
			Expect(result.DateSource).To(Equal(SourceFuzzyLabel))
		})

		It("should report no invoice number", func() {
			Expect(result.InvoiceNumber.Found()).To(BeFalse())
		})

		It("should not ask for another pass", func() {
			Expect(ev.LabelSeenDateUnresolved()).To(BeFalse())
		})
	})

	When("the exact label has no date in its window", func() {
		BeforeEach(func() {
			raw = "SPRZEDAZ 2024-09-01 FAKTURA FV/1/2024 DATA WYSTAWIENIA:" + strings.Repeat(" ", 80) + "2024-09-10"
		})

		It("should ask for another pass", func() {
			Expect(ev.LabelSeenDateUnresolved()).To(BeTrue())
		})

		It("should fall back to the date nearest the fuzzy label", func() {
			Expect(result.IssueDate).To(Equal(FoundField("2024-09-01")))
			Expect(result.DateSource).To(Equal(SourceFuzzyLabel))
		})
	})

	When("no label is present", func() {
		BeforeEach(func() {
			raw = "TERMIN 2024-10-01 SPRZEDAZ 2024-09-01"
		})

		It("should take the first date", func() {
			Expect(result.IssueDate).To(Equal(FoundField("2024-10-01")))
			Expect(result.DateSource).To(Equal(SourceFirstDate))
		})
	})

	When("there are no labels and no dates", func() {
		BeforeEach(func() {
			raw = "PARAGON NIEFISKALNY"
		})

		It("should report both fields as not found", func() {
			Expect(result.InvoiceNumber.Status).To(Equal(NotFound))
			Expect(result.IssueDate.Status).To(Equal(NotFound))
			Expect(result.DateSource).To(Equal(SourceNone))
		})
	})

	When("the text is empty", func() {
		BeforeEach(func() {
			raw = ""
		})

		It("should report both fields as not found", func() {
			Expect(result).To(Equal(Result{}))
		})
	})

	When("the label is misread by OCR", func() {
		BeforeEach(func() {
			raw = "data wystnsenia 05.09.2024"
		})

		It("should correct it and use the exact label", func() {
			Expect(ev.Text).To(Equal("DATA WYSTAWIENIA 05.09.2024"))
			Expect(result.DateSource).To(Equal(SourceExactLabel))
		})
	})

	When("corrections are swapped at runtime", func() {
		BeforeEach(func() {
			extractor.SetCorrections([]Correction{{From: "DATE", To: "DATA"}})
			raw = "date wystawienia 2024-09-10"
		})

		It("should use the new table", func() {
			Expect(result.DateSource).To(Equal(SourceExactLabel))
		})
	})
})

var _ = Describe("ResolveDate", func() {
	It("should keep the first pair on distance ties", func() {
		labels := []LabelMatch{{Offset: 10, Kind: LabelFuzzy}}
		dates := []Candidate{{Value: "A", Offset: 5}, {Value: "B", Offset: 15}}
		c, src, ok := ResolveDate(nil, labels, dates)
		Expect(ok).To(BeTrue())
		Expect(src).To(Equal(SourceFuzzyLabel))
		Expect(c.Value).To(Equal("A"))
	})

	It("should compare every label against every date", func() {
		labels := []LabelMatch{{Offset: 0}, {Offset: 100}}
		dates := []Candidate{{Value: "A", Offset: 30}, {Value: "B", Offset: 95}}
		c, _, _ := ResolveDate(nil, labels, dates)
		Expect(c.Value).To(Equal("B"))
	})

	It("should prefer the exact window date over nearer fuzzy labels", func() {
		exact := &ExactHit{Date: &Candidate{Value: "EXACT", Offset: 500}}
		labels := []LabelMatch{{Offset: 10}}
		dates := []Candidate{{Value: "A", Offset: 11}}
		c, src, _ := ResolveDate(exact, labels, dates)
		Expect(c.Value).To(Equal("EXACT"))
		Expect(src).To(Equal(SourceExactLabel))
	})

	It("should fall back to the first date without labels", func() {
		c, src, _ := ResolveDate(&ExactHit{}, nil, []Candidate{{Value: "A"}, {Value: "B"}})
		Expect(c.Value).To(Equal("A"))
		Expect(src).To(Equal(SourceFirstDate))
	})

	It("should report nothing without dates", func() {
		_, src, ok := ResolveDate(nil, []LabelMatch{{Offset: 1}}, nil)
		Expect(ok).To(BeFalse())
		Expect(src).To(Equal(SourceNone))
	})
})

var _ = Describe("Config", func() {
	It("should accept the defaults", func() {
		Expect(DefaultConfig().Validate()).To(Succeed())
	})

	It("should reject a non-positive window", func() {
		cfg := DefaultConfig()
		cfg.LabelWindow = 0
		Expect(cfg.Validate()).NotTo(Succeed())
	})

	It("should reject a threshold outside (0, 1]", func() {
		cfg := DefaultConfig()
		cfg.FuzzyThreshold = 1.5
		_, err := New(cfg)
		Expect(err).To(HaveOccurred())
	})
})
