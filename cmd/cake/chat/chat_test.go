package chatcmder

import (
	"bytes"
	"context"
	"errors"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/cake/pkg/knowledge"
)

var _ = Describe("converse", func() {
	var (
		out      *bytes.Buffer
		messages []string
		turn     turnFunc
	)

	BeforeEach(func() {
		out = &bytes.Buffer{}
		messages = nil
		turn = func(_ context.Context, message string) (string, []knowledge.Triplet, error) {
			messages = append(messages, message)
			if message == "fail" {
				return "", nil, errors.New("server unavailable")
			}
			return "echo: " + message, []knowledge.Triplet{{Subject: "user", Predicate: "said", Object: message}}, nil
		}
	})

	It("answers each message and skips blank lines", func() {
		in := strings.NewReader("hello\n\n   \nworld\n")
		Expect(converse(context.Background(), in, out, turn)).To(Succeed())

		Expect(messages).To(Equal([]string{"hello", "world"}))
		Expect(out.String()).To(ContainSubstring("echo: hello"))
		Expect(out.String()).To(ContainSubstring("echo: world"))
		Expect(out.String()).To(ContainSubstring("+ user said world"))
	})

	It("stops at /exit", func() {
		in := strings.NewReader("one\n/exit\ntwo\n")
		Expect(converse(context.Background(), in, out, turn)).To(Succeed())
		Expect(messages).To(Equal([]string{"one"}))
	})

	It("keeps going after a failed turn", func() {
		in := strings.NewReader("fail\nagain\n")
		Expect(converse(context.Background(), in, out, turn)).To(Succeed())

		Expect(messages).To(Equal([]string{"fail", "again"}))
		Expect(out.String()).To(ContainSubstring("server unavailable"))
		Expect(out.String()).To(ContainSubstring("echo: again"))
	})
})

var _ = Describe("NewChatCmd", func() {
	It("registers model, retrieval and remote flags", func() {
		cmd := NewChatCmd()
		for _, name := range []string{"model", "top", "history", "remote", "api-target"} {
			Expect(cmd.Flags().Lookup(name)).NotTo(BeNil(), name)
		}
	})
})
