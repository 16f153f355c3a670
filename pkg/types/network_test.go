package types

import (
	"testing"

	"github.com/btcsuite/btcd/chaincfg"
)

func TestNetworkByName(t *testing.T) {
	tests := []struct {
		name    string
		mainnet bool
		liquid  bool
		wantErr bool
	}{
		{"mainnet", true, false, false},
		{"testnet", false, false, false},
		{"liquid", true, true, false},
		{"testnet-liquid", false, true, false},
		{"regtest", false, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			net, err := NetworkByName(tt.name)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NetworkByName(%q) error = %v, wantErr %v", tt.name, err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if net.Name != tt.name {
				t.Errorf("Name = %q, want %q", net.Name, tt.name)
			}
			if net.IsMainnet() != tt.mainnet {
				t.Errorf("IsMainnet() = %v, want %v", net.IsMainnet(), tt.mainnet)
			}
			if net.IsLiquid() != tt.liquid {
				t.Errorf("IsLiquid() = %v, want %v", net.IsLiquid(), tt.liquid)
			}
		})
	}
}

func TestNetworkParams_ChainConfig(t *testing.T) {
	if MainnetParams.ChainConfig() != &chaincfg.MainNetParams {
		t.Error("mainnet must use mainnet extended key versions")
	}
	if TestnetParams.ChainConfig() != &chaincfg.TestNet3Params {
		t.Error("testnet must use testnet extended key versions")
	}
	// 机密资产链复用对应比特币网络的版本字节
	if LiquidParams.ChainConfig() != &chaincfg.MainNetParams {
		t.Error("liquid must reuse mainnet extended key versions")
	}
	if LiquidTestnetParams.ChainConfig() != &chaincfg.TestNet3Params {
		t.Error("liquid testnet must reuse testnet extended key versions")
	}
}

func TestNetworkParams_AddressVersion(t *testing.T) {
	if MainnetParams.AddressVersion != 0x00 {
		t.Errorf("mainnet AddressVersion = %#x, want 0x00", MainnetParams.AddressVersion)
	}
	if TestnetParams.AddressVersion != 0x6f {
		t.Errorf("testnet AddressVersion = %#x, want 0x6f", TestnetParams.AddressVersion)
	}
}
