package ollama_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/cake/pkg/llm"
	"github.com/papercomputeco/cake/pkg/llm/provider"
	"github.com/papercomputeco/cake/pkg/llm/provider/ollama"
	"github.com/papercomputeco/cake/pkg/logger"
)

var _ = Describe("Ollama Model", func() {
	var (
		server   *httptest.Server
		received map[string]any
		status   int
	)

	BeforeEach(func() {
		received = nil
		status = http.StatusOK
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			Expect(r.URL.Path).To(Equal("/api/chat"))
			Expect(json.NewDecoder(r.Body).Decode(&received)).To(Succeed())

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(status)
			if status != http.StatusOK {
				_, _ = w.Write([]byte(`{"error":"model not found"}`))
				return
			}
			_, _ = w.Write([]byte(`{"model":"llama3.2","message":{"role":"assistant","content":"{\"valuable_knowledge\": []}"},"done":true}`))
		}))
	})

	AfterEach(func() {
		server.Close()
	})

	newModel := func() *ollama.Model {
		m, err := ollama.New(provider.Config{BaseURL: server.URL, Model: "llama3.2", Logger: logger.Nop()})
		Expect(err).NotTo(HaveOccurred())
		return m
	}

	It("defaults the model name", func() {
		m, err := ollama.New(provider.Config{})
		Expect(err).NotTo(HaveOccurred())
		Expect(m.Name()).To(Equal(ollama.DefaultModel))
	})

	It("sends messages, temperature and schema and returns the content", func() {
		schema := json.RawMessage(`{"type":"object"}`)
		out, err := newModel().Complete(context.Background(), []llm.Message{
			llm.NewTextMessage(llm.RoleSystem, "extract"),
			llm.NewTextMessage(llm.RoleUser, "I own a cat"),
		}, llm.WithTemperature(0.7), llm.WithJSONSchema(schema))
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(Equal(`{"valuable_knowledge": []}`))

		Expect(received["model"]).To(Equal("llama3.2"))
		Expect(received["stream"]).To(BeFalse())
		Expect(received["format"]).To(Equal(map[string]any{"type": "object"}))
		Expect(received["options"]).To(HaveKeyWithValue("temperature", BeNumerically("~", 0.7, 0.001)))

		msgs := received["messages"].([]any)
		Expect(msgs).To(HaveLen(2))
		Expect(msgs[1]).To(HaveKeyWithValue("content", "I own a cat"))
	})

	It("returns an error when the server fails", func() {
		status = http.StatusNotFound
		_, err := newModel().Complete(context.Background(), []llm.Message{llm.NewTextMessage(llm.RoleUser, "hi")})
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("ollama chat"))
	})
})
