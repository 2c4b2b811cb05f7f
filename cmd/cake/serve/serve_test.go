package servecmder_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	servecmder "github.com/papercomputeco/cake/cmd/cake/serve"
)

var _ = Describe("NewServeCmd", func() {
	It("registers server, model and retrieval flags", func() {
		cmd := servecmder.NewServeCmd()
		Expect(cmd.Use).To(Equal("serve"))
		for _, name := range []string{"listen", "model", "top", "history", "mcp", "vector-store-provider"} {
			Expect(cmd.Flags().Lookup(name)).NotTo(BeNil(), name)
		}
	})

	It("defaults to serving MCP", func() {
		cmd := servecmder.NewServeCmd()
		Expect(cmd.Flags().Lookup("mcp").DefValue).To(Equal("true"))
	})

	It("defaults the listen address from config", func() {
		cmd := servecmder.NewServeCmd()
		Expect(cmd.Flags().Lookup("listen").DefValue).To(Equal(":8081"))
	})
})
