package mcp_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/cake/api/mcp"
	"github.com/papercomputeco/cake/pkg/knowledgebase"
	"github.com/papercomputeco/cake/pkg/logger"
)

type nopSearcher struct{}

func (nopSearcher) Matches(context.Context, string, int) ([]knowledgebase.Match, error) {
	return nil, nil
}

var _ = Describe("MCP Server", func() {
	var server *mcp.Server

	BeforeEach(func() {
		var err error
		server, err = mcp.NewServer(mcp.Config{
			Searcher: nopSearcher{},
			Logger:   logger.Nop(),
		})
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("NewServer", func() {
		It("returns an error when searcher is nil", func() {
			_, err := mcp.NewServer(mcp.Config{Logger: logger.Nop()})
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("searcher is required"))
		})

		It("returns an error when logger is nil", func() {
			_, err := mcp.NewServer(mcp.Config{Searcher: nopSearcher{}})
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("logger is required"))
		})

		It("allows an empty noop server", func() {
			noop, err := mcp.NewServer(mcp.Config{Noop: true})
			Expect(err).NotTo(HaveOccurred())
			Expect(noop.Handler()).NotTo(BeNil())
		})

		It("creates a server with valid config", func() {
			Expect(server).NotTo(BeNil())
		})

		It("returns an HTTP handler", func() {
			handler := server.Handler()
			Expect(handler).NotTo(BeNil())
		})
	})
})
