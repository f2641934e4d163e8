package registry

import (
	"strconv"

	"go-micro.dev/v5/registry"
)

// 元数据键
const (
	MetaBasePath   = "base_path"
	MetaEnv        = "env"
	MetaOperations = "operations"
)

// ServiceConfig 服务注册配置
type ServiceConfig struct {
	Name     string
	Version  string
	NodeID   string
	Address  string
	Metadata map[string]string
}

// BuildService 构建服务注册信息
func BuildService(cfg *ServiceConfig) *registry.Service {
	meta := make(map[string]string, len(cfg.Metadata))
	for k, v := range cfg.Metadata {
		meta[k] = v
	}
	return &registry.Service{
		Name:     cfg.Name,
		Version:  cfg.Version,
		Metadata: meta,
		Nodes: []*registry.Node{
			{
				Id:       cfg.NodeID,
				Address:  cfg.Address,
				Metadata: meta,
			},
		},
	}
}

// Meta 读取节点元数据，取第一个存在的值
func Meta(svc *registry.Service, key string) string {
	for _, node := range svc.Nodes {
		if v, ok := node.Metadata[key]; ok {
			return v
		}
	}
	return svc.Metadata[key]
}

// ServiceBuilder 服务构建器
type ServiceBuilder struct {
	config *ServiceConfig
}

// NewServiceBuilder 创建服务构建器
func NewServiceBuilder(name, version string) *ServiceBuilder {
	return &ServiceBuilder{
		config: &ServiceConfig{
			Name:     name,
			Version:  version,
			Metadata: make(map[string]string),
		},
	}
}

// WithNodeID 设置节点ID
func (b *ServiceBuilder) WithNodeID(nodeID string) *ServiceBuilder {
	b.config.NodeID = nodeID
	return b
}

// WithAddress 设置服务地址
func (b *ServiceBuilder) WithAddress(addr string) *ServiceBuilder {
	b.config.Address = addr
	return b
}

// WithBasePath 设置基础路径
func (b *ServiceBuilder) WithBasePath(basePath string) *ServiceBuilder {
	return b.WithMetadata(MetaBasePath, basePath)
}

// WithOperations 记录已注册的授权操作数
func (b *ServiceBuilder) WithOperations(n int) *ServiceBuilder {
	return b.WithMetadata(MetaOperations, strconv.Itoa(n))
}

// WithMetadata 设置元数据
func (b *ServiceBuilder) WithMetadata(key, value string) *ServiceBuilder {
	b.config.Metadata[key] = value
	return b
}

// Build 构建服务
func (b *ServiceBuilder) Build() *registry.Service {
	if b.config.NodeID == "" {
		b.config.NodeID = b.config.Name + "-1"
	}
	return BuildService(b.config)
}
