package signer

import (
	"github.com/glacierwallet/v1/pkg/types"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

// FactoryParams 工厂的依赖注入参数
type FactoryParams struct {
	fx.In

	Network types.NetworkParams
	Logger  *zerolog.Logger `optional:"true"`
	Metrics *Metrics        `optional:"true"`
}

// Module 返回签名器模块选项，使其可以被 fx 框架注册
//
// 链参数由配置模块提供；日志与指标可选注入。
func Module() fx.Option {
	return fx.Module("signer",
		fx.Provide(func(p FactoryParams) *Factory {
			var opts []FactoryOption
			if p.Logger != nil {
				opts = append(opts, WithLogger(*p.Logger))
			}
			if p.Metrics != nil {
				opts = append(opts, WithMetrics(p.Metrics))
			}
			return NewFactory(p.Network, opts...)
		}),
	)
}
