// Package snowflake generates 64-bit, time-ordered message ids:
// 41 bits of milliseconds since a fixed epoch, 10 bits of node id,
// 12 bits of per-millisecond sequence. Because the timestamp occupies
// the high bits, numeric id order follows creation order, which is what
// lets an id break ties between messages created in the same
// millisecond.
package snowflake

import (
	"errors"
	"os"
	"strconv"
	"sync"
	"time"
)

const (
	nodeBits        = 10
	stepBits        = 12
	nodeMax         = -1 ^ (-1 << nodeBits)
	stepMask        = -1 ^ (-1 << stepBits)
	timeShift       = nodeBits + stepBits
	nodeShift       = stepBits
	epoch     int64 = 1704067200000 // 2024-01-01 00:00:00 UTC
)

type Node struct {
	mu   sync.Mutex
	time int64
	node int64
	step int64
}

func NewNode(node int64) (*Node, error) {
	if node < 0 || node > nodeMax {
		return nil, errors.New("node number must be between 0 and 1023")
	}
	return &Node{node: node}, nil
}

// NodeFromEnv reads SNOWFLAKE_NODE_ID, defaulting to 0 when unset.
func NodeFromEnv() (*Node, error) {
	raw := os.Getenv("SNOWFLAKE_NODE_ID")
	if raw == "" {
		return NewNode(0)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, errors.New("SNOWFLAKE_NODE_ID must be an integer")
	}
	return NewNode(id)
}

func (n *Node) Generate() int64 {
	n.mu.Lock()
	defer n.mu.Unlock()

	now := time.Now().UnixMilli()

	if now < n.time {
		// Clock moved backwards, hold at the last seen millisecond.
		now = n.time
	}

	if n.time == now {
		n.step = (n.step + 1) & stepMask
		if n.step == 0 {
			for now <= n.time {
				now = time.Now().UnixMilli()
			}
		}
	} else {
		n.step = 0
	}

	n.time = now

	return ((now - epoch) << timeShift) | (n.node << nodeShift) | n.step
}

// Millis extracts the creation time of an id as unix milliseconds.
func Millis(id int64) int64 {
	return (id >> timeShift) + epoch
}
