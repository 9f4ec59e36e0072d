package scanning

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/ghttp"
)

var _ = Describe("Ollama", func() {
	var (
		server   *ghttp.Server
		ollama   *Ollama
		text     string
		err      error
		received ollamaChatRequest
	)

	BeforeEach(func() {
		server = ghttp.NewServer()
		var newErr error
		ollama, newErr = NewOllama(server.URL()+"/", "qwen2-vl:7b")
		Expect(newErr).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		server.Close()
	})

	JustBeforeEach(func() {
		text, err = ollama.Recognize(context.Background(), markerImage())
	})

	captureBody := func(w http.ResponseWriter, r *http.Request) {
		body, readErr := io.ReadAll(r.Body)
		Expect(readErr).NotTo(HaveOccurred())
		Expect(json.Unmarshal(body, &received)).To(Succeed())
	}

	When("the model answers", func() {
		BeforeEach(func() {
			server.AppendHandlers(ghttp.CombineHandlers(
				ghttp.VerifyRequest(http.MethodPost, "/api/chat"),
				ghttp.VerifyContentType("application/json"),
				captureBody,
				ghttp.RespondWithJSONEncoded(http.StatusOK, ollamaChatResponse{
					Message: ollamaMessage{Role: "assistant", Content: "```\nData wystawienia: 2024-09-10\n```"},
					Done:    true,
				}),
			))
		})

		It("should return the cleaned transcript", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(text).To(Equal("Data wystawienia: 2024-09-10"))
		})

		It("should send the image with the user message", func() {
			Expect(received.Model).To(Equal("qwen2-vl:7b"))
			Expect(received.Stream).To(BeFalse())
			Expect(received.Messages).To(HaveLen(2))
			Expect(received.Messages[1].Images).To(HaveLen(1))
		})
	})

	When("the API fails", func() {
		BeforeEach(func() {
			server.AppendHandlers(ghttp.RespondWith(http.StatusInternalServerError, "model not loaded"))
		})

		It("should surface the status and body", func() {
			Expect(err).To(MatchError(ContainSubstring("status 500")))
			Expect(err).To(MatchError(ContainSubstring("model not loaded")))
		})
	})

	When("the response is not JSON", func() {
		BeforeEach(func() {
			server.AppendHandlers(ghttp.RespondWith(http.StatusOK, "not json"))
		})

		It("returns the error", func() {
			Expect(err).To(HaveOccurred())
		})
	})
})
