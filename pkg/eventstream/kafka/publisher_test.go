package kafka_test

import (
	"encoding/json"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/cake/pkg/eventstream"
	"github.com/papercomputeco/cake/pkg/eventstream/kafka"
	"github.com/papercomputeco/cake/pkg/knowledge"
	"github.com/papercomputeco/cake/pkg/logger"
)

var _ = Describe("Publisher", func() {
	Describe("NewPublisher", func() {
		It("requires brokers", func() {
			_, err := kafka.NewPublisher(kafka.Config{Topic: "cake.knowledge"}, logger.Nop())
			Expect(err).To(MatchError("kafka brokers are required"))
		})

		It("requires a topic", func() {
			_, err := kafka.NewPublisher(kafka.Config{Brokers: []string{"localhost:9092"}}, logger.Nop())
			Expect(err).To(MatchError("kafka topic is required"))
		})

		It("does not dial on construction", func() {
			p, err := kafka.NewPublisher(kafka.Config{Brokers: []string{"localhost:1"}, Topic: "t"}, logger.Nop())
			Expect(err).NotTo(HaveOccurred())
			Expect(p.Close()).To(Succeed())
		})
	})

	Describe("NewMessage", func() {
		It("keys the message by event ID and carries the JSON payload", func() {
			event := eventstream.NewKnowledgeAcceptedEvent(eventstream.OriginIngest, []knowledge.Fact{
				{ID: 0, Triplet: knowledge.Triplet{Subject: "a", Predicate: "b", Object: "c"}},
			}, time.Now())

			msg, err := kafka.NewMessage(event)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(msg.Key)).To(Equal(event.EventID))
			Expect(msg.Headers[0].Key).To(Equal("event_type"))
			Expect(string(msg.Headers[0].Value)).To(Equal(eventstream.EventTypeKnowledgeAccepted))

			var decoded eventstream.KnowledgeAcceptedEvent
			Expect(json.Unmarshal(msg.Value, &decoded)).To(Succeed())
			Expect(decoded.Facts).To(HaveLen(1))
			Expect(decoded.Origin).To(Equal("ingest"))
		})

		It("rejects a nil event", func() {
			_, err := kafka.NewMessage(nil)
			Expect(err).To(MatchError(eventstream.ErrNilEvent))
		})
	})
})
