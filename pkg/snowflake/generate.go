package snowflake

import (
	"errors"

	"github.com/bwmarrin/snowflake"
)

var (
	errInvalidMachineID    = errors.New("invalid snowflake machine id")
	errInvalidDataCenterID = errors.New("invalid snowflake datacenter id")
)

// Generator 基于 snowflake 的 ID 生成器，每个进程按配置创建一个
type Generator struct {
	node *snowflake.Node
}

func New(machineID, dataCenterID int64) (*Generator, error) {
	if machineID < 0 || machineID > 31 {
		return nil, errInvalidMachineID
	}
	if dataCenterID < 0 || dataCenterID > 31 {
		return nil, errInvalidDataCenterID
	}
	nodeID := (dataCenterID << 5) | machineID // datacenterID 和 machineID 都是 0~31

	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return nil, err
	}

	return &Generator{node: node}, nil
}

func (g *Generator) NextID() (int64, error) {
	return g.node.Generate().Int64(), nil
}

// NextBase36 返回 base36 形式，用于可读编号
func (g *Generator) NextBase36() string {
	return g.node.Generate().Base36()
}
