package eval_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/cake/pkg/eval"
	"github.com/papercomputeco/cake/pkg/logger"
	testutils "github.com/papercomputeco/cake/pkg/utils/test"
)

const twoQuestions = `{"questions":[
  {"question":"How many cylinders does the engine have?","options":["two","four","six","eight"],"correct_answer":"four"},
  {"question":"What does the user own?","options":["car","bike","boat","plane"],"correct_answer":"bike"}
]}`

var _ = Describe("Question", func() {
	It("renders the question and its options", func() {
		q := eval.Question{Question: "Pick one", Options: []string{"a", "b", "c", "d"}, CorrectAnswer: "a"}
		Expect(q.Prompt()).To(Equal("Question: Pick one\nOptions:\na\nb\nc\nd\n"))
	})

	It("requires four options and an answer", func() {
		Expect(eval.Question{Question: "q", Options: []string{"a", "b", "c", "d"}, CorrectAnswer: "a"}.Valid()).To(BeTrue())
		Expect(eval.Question{Question: "q", Options: []string{"a", "b"}, CorrectAnswer: "a"}.Valid()).To(BeFalse())
		Expect(eval.Question{Question: "q", Options: []string{"a", "b", "c", "d"}}.Valid()).To(BeFalse())
	})
})

var _ = Describe("ParseQuestions", func() {
	It("decodes the questions object", func() {
		questions, err := eval.ParseQuestions(twoQuestions)
		Expect(err).NotTo(HaveOccurred())
		Expect(questions).To(HaveLen(2))
		Expect(questions[1].CorrectAnswer).To(Equal("bike"))
	})

	It("decodes a bare array", func() {
		questions, err := eval.ParseQuestions(`[{"question":"q","options":["a","b","c","d"],"correct_answer":"a"}]`)
		Expect(err).NotTo(HaveOccurred())
		Expect(questions).To(HaveLen(1))
	})

	It("rejects output without questions", func() {
		_, err := eval.ParseQuestions(`{"items":[]}`)
		Expect(err).To(HaveOccurred())

		_, err = eval.ParseQuestions("no questions here")
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("Generator", func() {
	var (
		ctx   context.Context
		model *testutils.MockModel
		gen   *eval.Generator
	)

	BeforeEach(func() {
		ctx = context.Background()
		model = testutils.NewMockModel()
		gen = eval.NewGenerator(model, logger.Nop())
	})

	It("returns the generated questions", func() {
		model.Responses = []string{twoQuestions}
		Expect(gen.Generate(ctx, "engine has four cylinders")).To(HaveLen(2))
		Expect(string(model.Calls()[0].Options.Schema)).To(MatchJSON(string(eval.QuestionSchema)))
	})

	It("drops questions that cannot be scored", func() {
		model.Responses = []string{`{"questions":[{"question":"q","options":["a"],"correct_answer":"a"}]}`}
		Expect(gen.Generate(ctx, "text")).To(BeEmpty())
	})

	It("returns nothing when the model fails", func() {
		model.Err = errors.New("offline")
		Expect(gen.Generate(ctx, "text")).To(BeEmpty())
	})

	It("returns nothing for malformed output", func() {
		model.Responses = []string{"sorry"}
		Expect(gen.Generate(ctx, "text")).To(BeEmpty())
	})
})

var _ = Describe("questions file", func() {
	var tmpDir string

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "eval-test-*")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	It("saves and loads questions", func() {
		path := filepath.Join(tmpDir, "questions.json")
		questions := []eval.Question{{Question: "q", Options: []string{"a", "b", "c", "d"}, CorrectAnswer: "a"}}

		Expect(eval.SaveQuestions(path, questions)).To(Succeed())

		loaded, err := eval.LoadQuestions(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(loaded).To(Equal(questions))
	})

	It("writes an empty list when there are no questions", func() {
		path := filepath.Join(tmpDir, "questions.json")
		Expect(eval.SaveQuestions(path, nil)).To(Succeed())

		data, err := os.ReadFile(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(MatchJSON(`[]`))
	})
})
