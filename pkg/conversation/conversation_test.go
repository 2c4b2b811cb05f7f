package conversation_test

import (
	"context"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/cake/pkg/conversation"
	"github.com/papercomputeco/cake/pkg/knowledge"
	"github.com/papercomputeco/cake/pkg/llm"
	"github.com/papercomputeco/cake/pkg/logger"
)

var _ = Describe("Log", func() {
	var (
		ctx    context.Context
		tmpDir string
		path   string
		log    *conversation.Log
	)

	BeforeEach(func() {
		ctx = context.Background()

		var err error
		tmpDir, err = os.MkdirTemp("", "conversation-test-*")
		Expect(err).NotTo(HaveOccurred())
		path = filepath.Join(tmpDir, "conversation.json")

		log, err = conversation.NewLog(path, logger.Nop())
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	It("starts empty when no document exists", func() {
		messages, err := log.All(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(messages).To(BeEmpty())
	})

	It("appends messages with timestamps and persists them", func() {
		msg, err := log.Append(ctx, llm.RoleUser, "I bought a red bike")
		Expect(err).NotTo(HaveOccurred())
		Expect(msg.Timestamp).NotTo(BeEmpty())

		_, err = log.Append(ctx, llm.RoleAssistant, "Nice!")
		Expect(err).NotTo(HaveOccurred())

		reopened, err := conversation.NewLog(path, logger.Nop())
		Expect(err).NotTo(HaveOccurred())

		messages, err := reopened.All(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(messages).To(HaveLen(2))
		Expect(messages[0].Role).To(Equal(llm.RoleUser))
		Expect(messages[1].LLMMessage()).To(Equal(llm.Message{Role: llm.RoleAssistant, Content: "Nice!"}))
	})

	It("returns the most recent window oldest first", func() {
		for _, c := range []string{"one", "two", "three", "four"} {
			_, err := log.Append(ctx, llm.RoleUser, c)
			Expect(err).NotTo(HaveOccurred())
		}

		recent, err := log.Recent(ctx, 3)
		Expect(err).NotTo(HaveOccurred())
		Expect(recent).To(HaveLen(3))
		Expect(recent[0].Content).To(Equal("two"))
		Expect(recent[2].Content).To(Equal("four"))

		all, err := log.Recent(ctx, 10)
		Expect(err).NotTo(HaveOccurred())
		Expect(all).To(HaveLen(4))

		none, err := log.Recent(ctx, 0)
		Expect(err).NotTo(HaveOccurred())
		Expect(none).To(BeEmpty())
	})

	It("reports an unreadable document as corrupt", func() {
		Expect(os.WriteFile(path, []byte("[{"), 0o644)).To(Succeed())

		_, err := log.Append(ctx, llm.RoleUser, "hello")
		Expect(err).To(MatchError(knowledge.ErrStoreCorrupt))
	})
})
