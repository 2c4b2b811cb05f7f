package chat_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/cake/pkg/chat"
	"github.com/papercomputeco/cake/pkg/conversation"
	"github.com/papercomputeco/cake/pkg/extract"
	"github.com/papercomputeco/cake/pkg/factstore"
	"github.com/papercomputeco/cake/pkg/index"
	"github.com/papercomputeco/cake/pkg/knowledge"
	"github.com/papercomputeco/cake/pkg/knowledgebase"
	"github.com/papercomputeco/cake/pkg/llm"
	"github.com/papercomputeco/cake/pkg/logger"
	"github.com/papercomputeco/cake/pkg/responder"
	testutils "github.com/papercomputeco/cake/pkg/utils/test"
	"github.com/papercomputeco/cake/pkg/vector/flat"
)

const extraction = `{"valuable_knowledge":[{"subject":"user","predicate":"owns","object":"bike"}]}`

var _ = Describe("Session", func() {
	var (
		ctx     context.Context
		tmpDir  string
		convLog *conversation.Log
		base    *knowledgebase.Base
		model   *testutils.MockModel
		session *chat.Session
	)

	BeforeEach(func() {
		ctx = context.Background()

		var err error
		tmpDir, err = os.MkdirTemp("", "chat-test-*")
		Expect(err).NotTo(HaveOccurred())

		convLog, err = conversation.NewLog(filepath.Join(tmpDir, "conversation.json"), logger.Nop())
		Expect(err).NotTo(HaveOccurred())

		store, err := factstore.New(filepath.Join(tmpDir, "knowledge.json"), logger.Nop())
		Expect(err).NotTo(HaveOccurred())
		driver, err := flat.NewDriver(flat.Config{}, logger.Nop())
		Expect(err).NotTo(HaveOccurred())
		base = knowledgebase.New(store, index.New(testutils.NewMockEmbedder(), driver, logger.Nop()), testutils.NewMockPublisher(), logger.Nop())

		// Extraction requests carry a JSON schema; answers do not.
		model = testutils.NewMockModel()
		model.Respond = func(messages []llm.Message) (string, error) {
			if strings.Contains(messages[0].Content, "knowledge extractor") {
				return extraction, nil
			}
			return "Nice bike!", nil
		}

		session = chat.NewSession(convLog,
			responder.New(base, model, logger.Nop()),
			extract.New(model, logger.Nop()),
			base, 3, logger.Nop())
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	It("rejects blank messages without touching the log", func() {
		_, err := session.Turn(ctx, "   ")
		Expect(err).To(MatchError(knowledge.ErrEmptyInput))

		all, err := convLog.All(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(all).To(BeEmpty())
	})

	It("answers, records the exchange and stores extracted knowledge", func() {
		reply, err := session.Turn(ctx, "I own a bike")
		Expect(err).NotTo(HaveOccurred())
		Expect(reply.Response).To(Equal("Nice bike!"))
		Expect(reply.ExtractedKnowledge).To(Equal([]knowledge.Triplet{{Subject: "user", Predicate: "owns", Object: "bike"}}))
		Expect(reply.NewFacts).To(Equal(1))

		all, err := convLog.All(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(all).To(HaveLen(2))
		Expect(all[0].Role).To(Equal(llm.RoleUser))
		Expect(all[0].Content).To(Equal("I own a bike"))
		Expect(all[1].Role).To(Equal(llm.RoleAssistant))
		Expect(all[1].Content).To(Equal("Nice bike!"))

		stats, err := base.Stats(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(stats).To(Equal(knowledgebase.Stats{Facts: 1, Indexed: 1, InSync: true}))
	})

	It("sends the recent window as history", func() {
		for _, msg := range []string{"one", "two", "three"} {
			_, err := session.Turn(ctx, msg)
			Expect(err).NotTo(HaveOccurred())
		}

		var answerCall testutils.ModelCall
		for _, call := range model.Calls() {
			if call.Options.Schema == nil {
				answerCall = call
			}
		}

		// system + 3 history messages + question
		Expect(answerCall.Messages).To(HaveLen(5))
		Expect(answerCall.Messages[1].Content).To(Equal("Nice bike!"))
		Expect(answerCall.Messages[2].Content).To(Equal("two"))
		Expect(answerCall.Messages[4].Content).To(Equal("three"))
	})

	It("still answers when the model is down", func() {
		model.Respond = nil
		model.Err = errors.New("offline")

		reply, err := session.Turn(ctx, "hello")
		Expect(err).NotTo(HaveOccurred())
		Expect(reply.Response).To(Equal(responder.Apology))
		Expect(reply.ExtractedKnowledge).To(BeEmpty())
	})
})
