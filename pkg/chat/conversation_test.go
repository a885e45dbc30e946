package chat_test

import (
	"github.com/killallgit/oracle/pkg/chat"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Transcript", func() {
	Describe("NewTranscriptWithWelcome", func() {
		It("should seed a system entry", func() {
			t := chat.NewTranscriptWithWelcome("Welcome")

			Expect(t.Len()).To(Equal(1))
			last, ok := t.Last()
			Expect(ok).To(BeTrue())
			Expect(last).To(Equal(chat.NewSystemEntry("Welcome")))
		})

		It("should be empty without a welcome message", func() {
			Expect(chat.NewTranscriptWithWelcome("").Len()).To(Equal(0))
		})
	})

	Describe("Append", func() {
		It("should add entries immutably", func() {
			original := chat.NewTranscript()
			updated := original.Append(chat.NewUserEntry("Hello"))

			Expect(original.Len()).To(Equal(0))
			Expect(updated.Len()).To(Equal(1))
		})

		It("should keep chronological order", func() {
			t := chat.NewTranscript().
				Append(chat.NewUserEntry("one")).
				Append(chat.NewAssistantEntry("two")).
				Append(chat.NewUserEntry("three"))

			Expect(t.Entries()).To(Equal([]chat.Entry{
				chat.NewUserEntry("one"),
				chat.NewAssistantEntry("two"),
				chat.NewUserEntry("three"),
			}))
		})
	})

	Describe("ReplaceLast", func() {
		It("should swap only the final entry", func() {
			base := chat.NewTranscript(chat.NewUserEntry("q"), chat.NewAssistantEntry("Bit"))
			updated := base.ReplaceLast(chat.NewAssistantEntry("Bitcoin"))

			Expect(updated.Len()).To(Equal(2))
			last, _ := updated.Last()
			Expect(last.Content).To(Equal("Bitcoin"))

			baseLast, _ := base.Last()
			Expect(baseLast.Content).To(Equal("Bit"))
		})

		It("should append when the transcript is empty", func() {
			t := chat.NewTranscript().ReplaceLast(chat.NewAssistantEntry("x"))
			Expect(t.Len()).To(Equal(1))
		})
	})

	Describe("Entries", func() {
		It("should return a defensive copy", func() {
			t := chat.NewTranscript(chat.NewUserEntry("a"))
			entries := t.Entries()
			entries[0] = chat.NewUserEntry("changed")

			first, _ := t.Last()
			Expect(first.Content).To(Equal("a"))
		})
	})

	Describe("Last", func() {
		It("should report the final entry", func() {
			t := chat.NewTranscript(chat.NewUserEntry("first"), chat.NewAssistantEntry("reply"))

			last, ok := t.Last()
			Expect(ok).To(BeTrue())
			Expect(last).To(Equal(chat.NewAssistantEntry("reply")))

			_, ok = chat.NewTranscript().Last()
			Expect(ok).To(BeFalse())
		})
	})
})
