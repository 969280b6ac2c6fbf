package uid

import "github.com/bwmarrin/snowflake"

// Snowflake generates sortable 64-bit IDs suitable for event payloads.
type Snowflake struct {
	node *snowflake.Node
}

// NewSnowflake creates a generator for the given node number.
func NewSnowflake(nodeID int64) (*Snowflake, error) {
	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return nil, err
	}

	return &Snowflake{node: node}, nil
}

// Generate returns a new snowflake ID.
func (s *Snowflake) Generate() uint64 {
	return uint64(s.node.Generate().Int64())
}
