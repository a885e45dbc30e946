package chat_test

import (
	"encoding/json"

	"github.com/killallgit/oracle/pkg/chat"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("RequestContext", func() {
	It("should exclude system entries and keep order", func() {
		t := chat.NewTranscript(
			chat.NewSystemEntry("Welcome"),
			chat.NewUserEntry("What is Bitcoin?"),
			chat.NewAssistantEntry("Bitcoin is..."),
			chat.NewUserEntry("Who made it?"),
		)

		history := chat.BuildRequestContext(t)

		Expect(history).To(Equal(chat.RequestContext{
			{Role: chat.RoleUser, Content: "What is Bitcoin?"},
			{Role: chat.RoleAssistant, Content: "Bitcoin is..."},
			{Role: chat.RoleUser, Content: "Who made it?"},
		}))
	})

	It("should encode as a JSON array of role/content objects", func() {
		t := chat.NewTranscriptWithWelcome("Welcome").Append(chat.NewUserEntry("What is Bitcoin?"))

		encoded, err := chat.BuildRequestContext(t).Encode()

		Expect(err).ToNot(HaveOccurred())
		Expect(encoded).To(MatchJSON(`[{"role":"user","content":"What is Bitcoin?"}]`))
	})

	It("should encode an empty history as an empty array", func() {
		var history chat.RequestContext
		encoded, err := history.Encode()

		Expect(err).ToNot(HaveOccurred())
		Expect(encoded).To(Equal("[]"))
	})

	Describe("DecodeRequestContext", func() {
		It("should round trip entries", func() {
			decoded, err := chat.DecodeRequestContext(`[{"role":"user","content":"hi"},{"role":"assistant","content":"hello"}]`)

			Expect(err).ToNot(HaveOccurred())
			Expect(decoded.Entries()).To(Equal([]chat.Entry{
				chat.NewUserEntry("hi"),
				chat.NewAssistantEntry("hello"),
			}))
		})

		It("should reject malformed JSON", func() {
			_, err := chat.DecodeRequestContext(`not json`)
			Expect(err).To(HaveOccurred())
		})

		It("should reject system and unknown roles", func() {
			_, err := chat.DecodeRequestContext(`[{"role":"system","content":"x"}]`)
			Expect(err).To(MatchError(ContainSubstring("unsupported role")))

			_, err = chat.DecodeRequestContext(`[{"role":"tool","content":"x"}]`)
			Expect(err).To(HaveOccurred())
		})
	})
})

var _ = Describe("NewRequest", func() {
	It("should carry the wire fields", func() {
		history := chat.RequestContext{{Role: chat.RoleUser, Content: "What is Bitcoin?"}}

		req, err := chat.NewRequest("be helpful", "gpt-4.1-mini", "sk-test", history)
		Expect(err).ToNot(HaveOccurred())

		data, err := json.Marshal(req)
		Expect(err).ToNot(HaveOccurred())
		Expect(data).To(MatchJSON(`{
			"developer_message": "be helpful",
			"user_message": "[{\"role\":\"user\",\"content\":\"What is Bitcoin?\"}]",
			"model": "gpt-4.1-mini",
			"api_key": "sk-test"
		}`))
	})
})
