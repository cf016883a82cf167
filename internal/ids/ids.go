// Package ids issues the human-traceable inquiry and vendor identifiers.
package ids

import (
	"fmt"

	"github.com/bwmarrin/snowflake"
)

const (
	InquiryPrefix = "INQ-"
	VendorPrefix  = "VEN-"
)

// Generator produces time-ordered ids that stay unique across instances
// configured with distinct node numbers.
type Generator struct {
	node *snowflake.Node
}

// NewGenerator creates a generator for the given node number (0-1023).
func NewGenerator(nodeID int64) (*Generator, error) {
	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return nil, fmt.Errorf("ids: snowflake node %d: %w", nodeID, err)
	}
	return &Generator{node: node}, nil
}

// NewInquiryID returns a fresh "INQ-<n>" id.
func (g *Generator) NewInquiryID() string {
	return InquiryPrefix + g.node.Generate().String()
}

// NewVendorID returns a fresh "VEN-<n>" id.
func (g *Generator) NewVendorID() string {
	return VendorPrefix + g.node.Generate().String()
}
