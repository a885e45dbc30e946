package controllers_test

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/killallgit/oracle/pkg/chat"
	"github.com/killallgit/oracle/pkg/controllers"
	"github.com/killallgit/oracle/pkg/endpoint"
	"github.com/killallgit/oracle/pkg/stream"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/stretchr/testify/mock"
)

type MockStreamingClient struct {
	mock.Mock
}

func (m *MockStreamingClient) Stream(ctx context.Context, req chat.Request, handler stream.Handler) error {
	args := m.Called(ctx, req, handler)
	return args.Error(0)
}

// streams delivers chunks to the handler the way endpoint.Client does.
func streams(chunks ...string) func(mock.Arguments) {
	return func(args mock.Arguments) {
		h := args.Get(2).(stream.Handler)
		h.OnStart()
		for _, c := range chunks {
			Expect(h.OnChunk([]byte(c))).To(Succeed())
		}
		Expect(h.OnComplete(strings.Join(chunks, ""))).To(Succeed())
	}
}

// blockingClient sends its chunks and then waits for the context to end.
type blockingClient struct {
	chunks []string
	sent   chan struct{}
}

func newBlockingClient(chunks ...string) *blockingClient {
	return &blockingClient{chunks: chunks, sent: make(chan struct{})}
}

func (c *blockingClient) Stream(ctx context.Context, req chat.Request, h stream.Handler) error {
	h.OnStart()
	for _, chunk := range c.chunks {
		if err := h.OnChunk([]byte(chunk)); err != nil {
			return err
		}
	}
	close(c.sent)
	<-ctx.Done()
	h.OnError(ctx.Err())
	return ctx.Err()
}

func decodeContext(req chat.Request) chat.RequestContext {
	rc, err := chat.DecodeRequestContext(req.UserMessage)
	Expect(err).NotTo(HaveOccurred())
	return rc
}

var _ = Describe("ConversationController", func() {
	var (
		mockClient *MockStreamingClient
		controller *controllers.ConversationController
		ctx        context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		mockClient = &MockStreamingClient{}
		controller = controllers.NewConversationController(mockClient, controllers.Options{
			Model:            "gpt-4.1-mini",
			DeveloperMessage: "You are a helpful Bitcoin assistant.",
			APIKey:           "test-key",
			WelcomeMessage:   "Welcome",
		})
	})

	AfterEach(func() {
		mockClient.AssertExpectations(GinkgoT())
	})

	Describe("NewConversationController", func() {
		It("should start idle with the welcome entry", func() {
			Expect(controller.State()).To(Equal(controllers.StateIdle))
			Expect(controller.Err()).To(BeNil())
			Expect(controller.Transcript().Entries()).To(Equal([]chat.Entry{chat.NewSystemEntry("Welcome")}))
			Expect(controller.Model()).To(Equal("gpt-4.1-mini"))
		})
	})

	Describe("Submit", func() {
		It("should ignore empty and whitespace-only input", func() {
			for _, text := range []string{"", "   ", "\n\t"} {
				Expect(controller.Submit(ctx, text)).To(Succeed())
			}
			Expect(controller.Transcript().Len()).To(Equal(1))
			Expect(controller.Err()).To(BeNil())
			mockClient.AssertNotCalled(GinkgoT(), "Stream", mock.Anything, mock.Anything, mock.Anything)
		})

		It("should run the end-to-end Bitcoin exchange", func() {
			var sent chat.Request
			mockClient.On("Stream", mock.Anything, mock.AnythingOfType("chat.Request"), mock.Anything).
				Run(func(args mock.Arguments) {
					sent = args.Get(1).(chat.Request)
					streams("Bit", "coin is...")(args)
				}).
				Return(nil).Once()

			Expect(controller.Submit(ctx, "What is Bitcoin?")).To(Succeed())

			Expect(sent.DeveloperMessage).To(Equal("You are a helpful Bitcoin assistant."))
			Expect(sent.Model).To(Equal("gpt-4.1-mini"))
			Expect(sent.APIKey).To(Equal("test-key"))
			Expect(sent.UserMessage).To(MatchJSON(`[{"role":"user","content":"What is Bitcoin?"}]`))

			Expect(controller.Transcript().Entries()).To(Equal([]chat.Entry{
				chat.NewSystemEntry("Welcome"),
				chat.NewUserEntry("What is Bitcoin?"),
				chat.NewAssistantEntry("Bitcoin is..."),
			}))
			Expect(controller.State()).To(Equal(controllers.StateIdle))
			Expect(controller.Err()).To(BeNil())
		})

		It("should keep exactly one trailing assistant entry while chunks arrive", func() {
			var lengths []int
			var contents []string
			controller.Subscribe(func(s controllers.Snapshot) {
				lengths = append(lengths, s.Transcript.Len())
				if last, ok := s.Transcript.Last(); ok && last.IsAssistant() {
					contents = append(contents, last.Content)
				}
			})
			mockClient.On("Stream", mock.Anything, mock.Anything, mock.Anything).
				Run(streams("a", "b", "c", "d")).
				Return(nil).Once()

			Expect(controller.Submit(ctx, "letters")).To(Succeed())

			for _, l := range lengths {
				Expect(l).To(BeNumerically("<=", 3))
			}
			Expect(contents).To(Equal([]string{"a", "ab", "abc", "abcd", "abcd"}))
			Expect(controller.Transcript().Entries()).To(Equal([]chat.Entry{
				chat.NewSystemEntry("Welcome"),
				chat.NewUserEntry("letters"),
				chat.NewAssistantEntry("abcd"),
			}))
		})

		It("should store the user text exactly as entered", func() {
			mockClient.On("Stream", mock.Anything, mock.Anything, mock.Anything).
				Run(streams("ok")).
				Return(nil).Once()

			Expect(controller.Submit(ctx, "  hello  ")).To(Succeed())

			Expect(controller.Transcript().Entries()[1]).To(Equal(chat.NewUserEntry("  hello  ")))
		})

		It("should send the full user and assistant history on each submission", func() {
			var requests []chat.Request
			record := func(args mock.Arguments) {
				requests = append(requests, args.Get(1).(chat.Request))
			}
			mockClient.On("Stream", mock.Anything, mock.Anything, mock.Anything).
				Run(func(args mock.Arguments) { record(args); streams("first answer")(args) }).
				Return(nil).Once()
			mockClient.On("Stream", mock.Anything, mock.Anything, mock.Anything).
				Run(func(args mock.Arguments) { record(args); streams("second answer")(args) }).
				Return(nil).Once()

			Expect(controller.Submit(ctx, "first")).To(Succeed())
			Expect(controller.Submit(ctx, "second")).To(Succeed())

			Expect(requests).To(HaveLen(2))
			Expect(decodeContext(requests[0])).To(Equal(chat.RequestContext{
				{Role: chat.RoleUser, Content: "first"},
			}))
			Expect(decodeContext(requests[1])).To(Equal(chat.RequestContext{
				{Role: chat.RoleUser, Content: "first"},
				{Role: chat.RoleAssistant, Content: "first answer"},
				{Role: chat.RoleUser, Content: "second"},
			}))
			Expect(controller.Transcript().Len()).To(Equal(5))
		})

		It("should keep partial content and record the error when the stream fails", func() {
			streamErr := errors.New("stream reading error: connection reset")
			mockClient.On("Stream", mock.Anything, mock.Anything, mock.Anything).
				Run(func(args mock.Arguments) {
					h := args.Get(2).(stream.Handler)
					h.OnStart()
					Expect(h.OnChunk([]byte("Bitcoin is"))).To(Succeed())
					h.OnError(streamErr)
				}).
				Return(streamErr).Once()

			err := controller.Submit(ctx, "What is Bitcoin?")

			Expect(err).To(MatchError(streamErr))
			Expect(controller.Err()).To(MatchError(streamErr))
			Expect(controller.State()).To(Equal(controllers.StateIdle))
			last, _ := controller.Transcript().Last()
			Expect(last).To(Equal(chat.NewAssistantEntry("Bitcoin is")))
		})

		It("should record status and missing body errors without an assistant entry", func() {
			statusErr := &endpoint.StatusError{Code: 502, Message: "bad gateway"}
			mockClient.On("Stream", mock.Anything, mock.Anything, mock.Anything).Return(statusErr).Once()
			mockClient.On("Stream", mock.Anything, mock.Anything, mock.Anything).Return(endpoint.ErrNoResponseBody).Once()

			Expect(controller.Submit(ctx, "one")).To(MatchError(statusErr))
			Expect(controller.Snapshot().ErrorMessage()).To(Equal("request failed with status 502: bad gateway"))

			Expect(controller.Submit(ctx, "two")).To(MatchError(endpoint.ErrNoResponseBody))
			Expect(controller.Transcript().Entries()).To(Equal([]chat.Entry{
				chat.NewSystemEntry("Welcome"),
				chat.NewUserEntry("one"),
				chat.NewUserEntry("two"),
			}))
		})

		It("should clear the previous error on the next submission", func() {
			mockClient.On("Stream", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("offline")).Once()
			mockClient.On("Stream", mock.Anything, mock.Anything, mock.Anything).Run(streams("back")).Return(nil).Once()

			Expect(controller.Submit(ctx, "one")).NotTo(Succeed())
			Expect(controller.Err()).To(HaveOccurred())

			Expect(controller.Submit(ctx, "two")).To(Succeed())
			Expect(controller.Err()).To(BeNil())
		})

		It("should decode a multibyte rune split across chunks", func() {
			var sawReplacement bool
			controller.Subscribe(func(s controllers.Snapshot) {
				if last, ok := s.Transcript.Last(); ok && strings.ContainsRune(last.Content, '�') {
					sawReplacement = true
				}
			})
			mockClient.On("Stream", mock.Anything, mock.Anything, mock.Anything).
				Run(func(args mock.Arguments) {
					h := args.Get(2).(stream.Handler)
					h.OnStart()
					Expect(h.OnChunk([]byte("price: \xe2\x82"))).To(Succeed())
					Expect(h.OnChunk([]byte("\xac5"))).To(Succeed())
					Expect(h.OnComplete("price: €5")).To(Succeed())
				}).
				Return(nil).Once()

			Expect(controller.Submit(ctx, "price?")).To(Succeed())

			last, _ := controller.Transcript().Last()
			Expect(last.Content).To(Equal("price: €5"))
			Expect(sawReplacement).To(BeFalse())
		})

		It("should leave no assistant entry when the stream is empty", func() {
			mockClient.On("Stream", mock.Anything, mock.Anything, mock.Anything).Run(streams()).Return(nil).Once()

			Expect(controller.Submit(ctx, "anything?")).To(Succeed())

			last, _ := controller.Transcript().Last()
			Expect(last.IsUser()).To(BeTrue())
			Expect(controller.State()).To(Equal(controllers.StateIdle))
		})
	})

	Describe("Subscribe", func() {
		It("should publish state transitions in order", func() {
			var states []controllers.State
			controller.Subscribe(func(s controllers.Snapshot) {
				states = append(states, s.State)
			})
			mockClient.On("Stream", mock.Anything, mock.Anything, mock.Anything).
				Run(streams("Bit", "coin")).
				Return(nil).Once()

			Expect(controller.Submit(ctx, "What is Bitcoin?")).To(Succeed())

			Expect(states).To(Equal([]controllers.State{
				controllers.StateSending,
				controllers.StateStreaming,
				controllers.StateStreaming,
				controllers.StateStreaming,
				controllers.StateIdle,
			}))
		})

		It("should pass through Error before returning to Idle", func() {
			var states []controllers.State
			controller.Subscribe(func(s controllers.Snapshot) {
				states = append(states, s.State)
			})
			mockClient.On("Stream", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("offline")).Once()

			Expect(controller.Submit(ctx, "hello")).NotTo(Succeed())

			Expect(states).To(Equal([]controllers.State{
				controllers.StateSending,
				controllers.StateError,
				controllers.StateIdle,
			}))
		})

		It("should stop delivering after unsubscribe", func() {
			calls := 0
			unsubscribe := controller.Subscribe(func(controllers.Snapshot) { calls++ })
			unsubscribe()
			mockClient.On("Stream", mock.Anything, mock.Anything, mock.Anything).Run(streams("x")).Return(nil).Once()

			Expect(controller.Submit(ctx, "hello")).To(Succeed())
			Expect(calls).To(BeZero())
		})
	})

	Describe("Reset", func() {
		It("should restore the welcome transcript", func() {
			mockClient.On("Stream", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("offline")).Once()
			Expect(controller.Submit(ctx, "hello")).NotTo(Succeed())

			Expect(controller.Reset()).To(Succeed())

			Expect(controller.Transcript().Entries()).To(Equal([]chat.Entry{chat.NewSystemEntry("Welcome")}))
			Expect(controller.Err()).To(BeNil())
		})
	})
})

var _ = Describe("ConversationController in flight", func() {
	var (
		client     *blockingClient
		controller *controllers.ConversationController
		done       chan error
	)

	BeforeEach(func() {
		client = newBlockingClient("Bitcoin ", "is")
		controller = controllers.NewConversationController(client, controllers.Options{Model: "gpt-4.1-mini"})
		done = make(chan error, 1)

		go func() {
			defer GinkgoRecover()
			done <- controller.Submit(context.Background(), "What is Bitcoin?")
		}()
		Eventually(client.sent).Should(BeClosed())
	})

	It("should reject a second submission with ErrBusy", func() {
		before := controller.Transcript()

		Expect(controller.Submit(context.Background(), "another")).To(MatchError(controllers.ErrBusy))
		Expect(controller.Reset()).To(MatchError(controllers.ErrBusy))
		Expect(controller.Transcript().Entries()).To(Equal(before.Entries()))
		Expect(controller.State()).To(Equal(controllers.StateStreaming))

		Expect(controller.Cancel()).To(BeTrue())
		Eventually(done).Should(Receive(MatchError(controllers.ErrCancelled)))
	})

	It("should keep partial content when cancelled", func() {
		Expect(controller.Snapshot().Busy()).To(BeTrue())

		Expect(controller.Cancel()).To(BeTrue())

		Eventually(done).Should(Receive(MatchError(controllers.ErrCancelled)))
		Expect(controller.State()).To(Equal(controllers.StateIdle))
		Expect(controller.Err()).To(MatchError(controllers.ErrCancelled))
		Expect(controller.Transcript().Entries()).To(Equal([]chat.Entry{
			chat.NewUserEntry("What is Bitcoin?"),
			chat.NewAssistantEntry("Bitcoin is"),
		}))
		Expect(controller.Cancel()).To(BeFalse())
	})
})

var _ = Describe("ConversationController concurrency", func() {
	It("should allow only one in-flight submission", func() {
		client := newBlockingClient("x")
		controller := controllers.NewConversationController(client, controllers.Options{})
		ctx, cancel := context.WithCancel(context.Background())

		first := make(chan error, 1)
		go func() {
			defer GinkgoRecover()
			first <- controller.Submit(ctx, "first")
		}()
		Eventually(client.sent).Should(BeClosed())

		var wg sync.WaitGroup
		var busy sync.Map
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func(i int) {
				defer GinkgoRecover()
				defer wg.Done()
				busy.Store(i, controller.Submit(ctx, "more"))
			}(i)
		}
		wg.Wait()

		busy.Range(func(_, v any) bool {
			Expect(v).To(MatchError(controllers.ErrBusy))
			return true
		})
		Expect(controller.Transcript().Len()).To(Equal(2))

		cancel()
		Eventually(first).Should(Receive(MatchError(controllers.ErrCancelled)))
		Expect(controller.State()).To(Equal(controllers.StateIdle))
	})
})

var _ = Describe("ConversationController with a cancelled context", func() {
	It("should record ErrCancelled when the caller's context ends mid-stream", func() {
		client := newBlockingClient("Bit")
		controller := controllers.NewConversationController(client, controllers.Options{})
		ctx, cancel := context.WithCancel(context.Background())

		done := make(chan error, 1)
		go func() {
			defer GinkgoRecover()
			done <- controller.Submit(ctx, "What is Bitcoin?")
		}()
		Eventually(client.sent).Should(BeClosed())

		cancel()
		Eventually(done).Should(Receive(MatchError(controllers.ErrCancelled)))
		Expect(controller.Err()).To(MatchError(controllers.ErrCancelled))
		Expect(controller.Transcript().Entries()).To(Equal([]chat.Entry{
			chat.NewUserEntry("What is Bitcoin?"),
			chat.NewAssistantEntry("Bit"),
		}))
	})

	It("should not contact the endpoint when the context is already cancelled", func() {
		mockClient := &MockStreamingClient{}
		controller := controllers.NewConversationController(mockClient, controllers.Options{})
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		Expect(controller.Submit(ctx, "What is Bitcoin?")).To(MatchError(controllers.ErrCancelled))
		Expect(controller.State()).To(Equal(controllers.StateIdle))
		Expect(controller.Err()).To(MatchError(controllers.ErrCancelled))
		Expect(controller.Transcript().Entries()).To(Equal([]chat.Entry{chat.NewUserEntry("What is Bitcoin?")}))
		mockClient.AssertNotCalled(GinkgoT(), "Stream", mock.Anything, mock.Anything, mock.Anything)
	})
})
