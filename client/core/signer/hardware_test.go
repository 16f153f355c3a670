package signer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/btcsuite/btcd/btcec/v2"
	btcecdsa "github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glacierwallet/v1/pkg/types"
)

// scriptedProxy 测试用设备代理：记录请求并按 handler 应答
type scriptedProxy struct {
	mu      sync.Mutex
	calls   []*DeviceRequest
	handler func(ctx context.Context, req *DeviceRequest) (*DeviceResponse, error)

	inFlight atomic.Int32
	overlap  atomic.Bool
}

func (p *scriptedProxy) Call(ctx context.Context, req *DeviceRequest) (*DeviceResponse, error) {
	if p.inFlight.Add(1) > 1 {
		p.overlap.Store(true)
	}
	defer p.inFlight.Add(-1)

	p.mu.Lock()
	p.calls = append(p.calls, req)
	handler := p.handler
	p.mu.Unlock()

	if handler == nil {
		return &DeviceResponse{Payload: map[string]any{}}, nil
	}
	return handler(ctx, req)
}

func (p *scriptedProxy) recorded() []*DeviceRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]*DeviceRequest, len(p.calls))
	copy(out, p.calls)
	return out
}

// testDeviceSignature 生成一条真实 DER 签名作为 mock 应答
func testDeviceSignature(t *testing.T, hash []byte) []byte {
	t.Helper()
	privBytes := bytes32(0x42)
	priv, _ := btcec.PrivKeyFromBytes(privBytes)
	return btcecdsa.Sign(priv, hash).Serialize()
}

func bytes32(fill byte) []byte {
	b := make([]byte, 32)
	for i := range b {
		b[i] = fill
	}
	return b
}

func newTestHardwareSigner(t *testing.T, net types.NetworkParams, desc DeviceDescriptor, proxy DeviceProxy) *HardwareSigner {
	t.Helper()
	s, err := NewFactory(net).Hardware(desc, proxy)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestHardwareSigner_CapabilitiesFromDescriptor(t *testing.T) {
	desc := DeviceDescriptor{
		DeviceKeyName:              "ledgerish",
		DeviceKeySupportsLowR:      true,
		DeviceKeyArbitraryScripts:  true,
		DeviceKeyHostUnblinding:    true,
		DeviceKeyLiquidSupport:     "lite",
		DeviceKeyAEProtocolSupport: "optional",
		"firmware_version":         "2.1.0", // 未识别键，原样保留
	}
	s := newTestHardwareSigner(t, types.LiquidParams, desc, &scriptedProxy{})

	assert.Equal(t, VariantHardware, s.Variant())
	assert.True(t, s.IsHardware())
	assert.False(t, s.IsWatchOnly())
	assert.True(t, s.SupportsLowR())
	assert.True(t, s.SupportsArbitraryScripts())
	assert.True(t, s.SupportsHostUnblinding())
	assert.Equal(t, types.LiquidSupportLite, s.LiquidSupport())
	assert.Equal(t, types.AESupportOptional, s.AEProtocolSupport())

	got, err := s.Device()
	require.NoError(t, err)
	assert.Equal(t, "ledgerish", got.Name())
	assert.Equal(t, "2.1.0", got["firmware_version"])

	// 返回的是拷贝，调用方修改不影响签名器
	got[DeviceKeyName] = "tampered"
	again, err := s.Device()
	require.NoError(t, err)
	assert.Equal(t, "ledgerish", again.Name())
}

func TestHardwareSigner_ConservativeDefaults(t *testing.T) {
	s := newTestHardwareSigner(t, types.MainnetParams, DeviceDescriptor{DeviceKeyName: "minimal"}, &scriptedProxy{})

	assert.False(t, s.SupportsLowR())
	assert.False(t, s.SupportsArbitraryScripts())
	assert.False(t, s.SupportsHostUnblinding())
	assert.Equal(t, types.LiquidSupportNone, s.LiquidSupport())
	assert.Equal(t, types.AESupportNone, s.AEProtocolSupport())

	mnemonic, err := s.GetMnemonic("any")
	require.NoError(t, err)
	assert.Empty(t, mnemonic)
}

func TestHardwareSigner_NilProxy(t *testing.T) {
	_, err := NewFactory(types.MainnetParams).Hardware(DeviceDescriptor{}, nil)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestHardwareSigner_GetXpub(t *testing.T) {
	proxy := &scriptedProxy{
		handler: func(ctx context.Context, req *DeviceRequest) (*DeviceResponse, error) {
			return &DeviceResponse{Payload: map[string]any{
				DevicePayloadXpub: testMasterXpub,
			}}, nil
		},
	}
	s := newTestHardwareSigner(t, types.MainnetParams, DeviceDescriptor{}, proxy)

	path := types.DerivationPath{types.Harden(44), types.Harden(0)}
	xpub, err := s.GetBIP32Xpub(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, testMasterXpub, xpub)

	calls := proxy.recorded()
	require.Len(t, calls, 1)
	assert.Equal(t, DeviceOpGetXpub, calls[0].Op)
	assert.Equal(t, path, calls[0].Path)
	assert.NotEmpty(t, calls[0].ID)
}

func TestHardwareSigner_GetXpubWrongNetwork(t *testing.T) {
	proxy := &scriptedProxy{
		handler: func(ctx context.Context, req *DeviceRequest) (*DeviceResponse, error) {
			// 主网 xpub 应答给测试网签名器
			return &DeviceResponse{Payload: map[string]any{
				DevicePayloadXpub: testMasterXpub,
			}}, nil
		},
	}
	s := newTestHardwareSigner(t, types.TestnetParams, DeviceDescriptor{}, proxy)

	_, err := s.GetXpub(context.Background(), types.DerivationPath{})
	assert.ErrorIs(t, err, ErrDeviceUnavailable)
}

func TestHardwareSigner_SignHashPlain(t *testing.T) {
	hash := sha256.Sum256([]byte("plain"))
	want := testDeviceSignature(t, hash[:])

	proxy := &scriptedProxy{
		handler: func(ctx context.Context, req *DeviceRequest) (*DeviceResponse, error) {
			return &DeviceResponse{Payload: map[string]any{
				DevicePayloadSignature: hex.EncodeToString(want),
			}}, nil
		},
	}
	s := newTestHardwareSigner(t, types.MainnetParams, DeviceDescriptor{
		DeviceKeyAEProtocolSupport: "none",
	}, proxy)

	sig, err := s.SignHash(context.Background(), types.DerivationPath{0}, hash[:])
	require.NoError(t, err)
	assert.Equal(t, want, sig)

	calls := proxy.recorded()
	require.Len(t, calls, 1)
	assert.Equal(t, DeviceOpSignHash, calls[0].Op)
	assert.Equal(t, hex.EncodeToString(hash[:]), calls[0].Payload[DevicePayloadHash])
}

// mandatory 级别下 SignHash 必须走两轮 AE 协议，绝不请求普通签名
func TestHardwareSigner_SignHashAEMandatory(t *testing.T) {
	hash := sha256.Sum256([]byte("anti-exfil"))
	want := testDeviceSignature(t, hash[:])

	proxy := &scriptedProxy{
		handler: func(ctx context.Context, req *DeviceRequest) (*DeviceResponse, error) {
			switch req.Op {
			case DeviceOpSignHashAECommit:
				return &DeviceResponse{Payload: map[string]any{
					DevicePayloadSignerCommitment: hex.EncodeToString(bytes32(0x11)),
				}}, nil
			case DeviceOpSignHashAE:
				return &DeviceResponse{Payload: map[string]any{
					DevicePayloadSignature: hex.EncodeToString(want),
				}}, nil
			default:
				return nil, errors.New("unexpected op")
			}
		},
	}
	s := newTestHardwareSigner(t, types.MainnetParams, DeviceDescriptor{
		DeviceKeyAEProtocolSupport: "mandatory",
	}, proxy)

	sig, err := s.SignHash(context.Background(), types.DerivationPath{0, 1}, hash[:])
	require.NoError(t, err)
	assert.Equal(t, want, sig)

	calls := proxy.recorded()
	require.Len(t, calls, 2)
	assert.Equal(t, DeviceOpSignHashAECommit, calls[0].Op)
	assert.Equal(t, DeviceOpSignHashAE, calls[1].Op)

	// 第二轮公开的主机熵必须兑现第一轮的 SHA-256 承诺
	commitmentHex, ok := calls[0].Payload[DevicePayloadHostCommitment].(string)
	require.True(t, ok)
	entropyHex, ok := calls[1].Payload[DevicePayloadHostEntropy].(string)
	require.True(t, ok)

	entropy, err := hex.DecodeString(entropyHex)
	require.NoError(t, err)
	require.Len(t, entropy, 32)
	sum := sha256.Sum256(entropy)
	assert.Equal(t, hex.EncodeToString(sum[:]), commitmentHex)
}

func TestHardwareSigner_SignHashAntiExfil(t *testing.T) {
	hash := sha256.Sum256([]byte("explicit ae"))

	t.Run("unsupported", func(t *testing.T) {
		s := newTestHardwareSigner(t, types.MainnetParams, DeviceDescriptor{}, &scriptedProxy{})
		_, err := s.SignHashAntiExfil(context.Background(), types.DerivationPath{0}, hash[:])
		assert.ErrorIs(t, err, ErrNotSupported)
	})

	t.Run("optional uses ae rounds", func(t *testing.T) {
		want := testDeviceSignature(t, hash[:])
		proxy := &scriptedProxy{
			handler: func(ctx context.Context, req *DeviceRequest) (*DeviceResponse, error) {
				if req.Op == DeviceOpSignHashAECommit {
					return &DeviceResponse{Payload: map[string]any{
						DevicePayloadSignerCommitment: hex.EncodeToString(bytes32(0x22)),
					}}, nil
				}
				return &DeviceResponse{Payload: map[string]any{
					DevicePayloadSignature: hex.EncodeToString(want),
				}}, nil
			},
		}
		s := newTestHardwareSigner(t, types.MainnetParams, DeviceDescriptor{
			DeviceKeyAEProtocolSupport: "optional",
		}, proxy)

		sig, err := s.SignHashAntiExfil(context.Background(), types.DerivationPath{0}, hash[:])
		require.NoError(t, err)
		assert.Equal(t, want, sig)

		calls := proxy.recorded()
		require.Len(t, calls, 2)
		assert.Equal(t, DeviceOpSignHashAECommit, calls[0].Op)
		assert.Equal(t, DeviceOpSignHashAE, calls[1].Op)
	})

	t.Run("optional plain signhash stays plain", func(t *testing.T) {
		want := testDeviceSignature(t, hash[:])
		proxy := &scriptedProxy{
			handler: func(ctx context.Context, req *DeviceRequest) (*DeviceResponse, error) {
				return &DeviceResponse{Payload: map[string]any{
					DevicePayloadSignature: hex.EncodeToString(want),
				}}, nil
			},
		}
		s := newTestHardwareSigner(t, types.MainnetParams, DeviceDescriptor{
			DeviceKeyAEProtocolSupport: "optional",
		}, proxy)

		_, err := s.SignHash(context.Background(), types.DerivationPath{0}, hash[:])
		require.NoError(t, err)

		calls := proxy.recorded()
		require.Len(t, calls, 1)
		assert.Equal(t, DeviceOpSignHash, calls[0].Op)
	})
}

func TestHardwareSigner_InvalidHashLength(t *testing.T) {
	s := newTestHardwareSigner(t, types.MainnetParams, DeviceDescriptor{}, &scriptedProxy{})

	_, err := s.SignHash(context.Background(), types.DerivationPath{0}, []byte{0x01, 0x02})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = s.SignHashAntiExfil(context.Background(), types.DerivationPath{0}, nil)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestHardwareSigner_ErrorMapping(t *testing.T) {
	hash := sha256.Sum256([]byte("errors"))

	tests := []struct {
		name    string
		respond error
		want    error
	}{
		{"rejection passes through", ErrSigningRejected, ErrSigningRejected},
		{"busy passes through", ErrDeviceBusy, ErrDeviceBusy},
		{"transport failure", errors.New("usb yanked"), ErrDeviceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			proxy := &scriptedProxy{
				handler: func(ctx context.Context, req *DeviceRequest) (*DeviceResponse, error) {
					return nil, tt.respond
				},
			}
			s := newTestHardwareSigner(t, types.MainnetParams, DeviceDescriptor{}, proxy)

			_, err := s.SignHash(context.Background(), types.DerivationPath{0}, hash[:])
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestHardwareSigner_Timeout(t *testing.T) {
	proxy := &scriptedProxy{
		handler: func(ctx context.Context, req *DeviceRequest) (*DeviceResponse, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		},
	}
	s := newTestHardwareSigner(t, types.MainnetParams, DeviceDescriptor{}, proxy)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := s.GetXpub(ctx, types.DerivationPath{})
	assert.ErrorIs(t, err, ErrDeviceTimeout)
}

func TestHardwareSigner_CancelledBeforeCall(t *testing.T) {
	proxy := &scriptedProxy{}
	s := newTestHardwareSigner(t, types.MainnetParams, DeviceDescriptor{}, proxy)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.GetXpub(ctx, types.DerivationPath{})
	assert.ErrorIs(t, err, ErrDeviceUnavailable)
	assert.Empty(t, proxy.recorded(), "cancelled context must not reach the device")
}

// 并发调用被串行化：代理任意时刻至多一个未完成请求
func TestHardwareSigner_SerializedDeviceAccess(t *testing.T) {
	proxy := &scriptedProxy{
		handler: func(ctx context.Context, req *DeviceRequest) (*DeviceResponse, error) {
			time.Sleep(5 * time.Millisecond)
			return &DeviceResponse{Payload: map[string]any{
				DevicePayloadXpub: testMasterXpub,
			}}, nil
		},
	}
	s := newTestHardwareSigner(t, types.MainnetParams, DeviceDescriptor{}, proxy)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.GetXpub(context.Background(), types.DerivationPath{0})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.False(t, proxy.overlap.Load(), "device calls must not overlap")
	assert.Len(t, proxy.recorded(), 8)
}

// 队首设备调用悬挂时，排队的调用方到达自身 ctx 期限必须立刻
// 返回，而不是等队首完成
func TestHardwareSigner_QueuedCallerDeadline(t *testing.T) {
	entered := make(chan struct{}, 1)
	release := make(chan struct{})
	proxy := &scriptedProxy{
		handler: func(ctx context.Context, req *DeviceRequest) (*DeviceResponse, error) {
			entered <- struct{}{}
			<-release // 模拟等待物理确认的悬挂
			return &DeviceResponse{Payload: map[string]any{
				DevicePayloadXpub: testMasterXpub,
			}}, nil
		},
	}
	s := newTestHardwareSigner(t, types.MainnetParams, DeviceDescriptor{}, proxy)

	headDone := make(chan error, 1)
	go func() {
		_, err := s.GetXpub(context.Background(), types.DerivationPath{0})
		headDone <- err
	}()
	<-entered // 队首请求已占用设备

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := s.GetXpub(ctx, types.DerivationPath{1})
	elapsed := time.Since(start)

	assert.ErrorIs(t, err, ErrDeviceBusy)
	assert.ErrorIs(t, err, ErrDeviceTimeout)
	assert.Less(t, elapsed, time.Second, "queued caller must not hang past its deadline")

	// 排队方放弃不影响队首请求
	close(release)
	require.NoError(t, <-headDone)
	assert.Len(t, proxy.recorded(), 1, "the expired caller must never reach the device")
}

// 排队期间被取消的调用方归类为设备不可用
func TestHardwareSigner_QueuedCallerCancelled(t *testing.T) {
	entered := make(chan struct{}, 1)
	release := make(chan struct{})
	proxy := &scriptedProxy{
		handler: func(ctx context.Context, req *DeviceRequest) (*DeviceResponse, error) {
			entered <- struct{}{}
			<-release
			return &DeviceResponse{Payload: map[string]any{
				DevicePayloadXpub: testMasterXpub,
			}}, nil
		},
	}
	s := newTestHardwareSigner(t, types.MainnetParams, DeviceDescriptor{}, proxy)

	headDone := make(chan error, 1)
	go func() {
		_, err := s.GetXpub(context.Background(), types.DerivationPath{0})
		headDone <- err
	}()
	<-entered

	ctx, cancel := context.WithCancel(context.Background())
	queuedDone := make(chan error, 1)
	go func() {
		_, err := s.GetXpub(ctx, types.DerivationPath{1})
		queuedDone <- err
	}()
	time.Sleep(20 * time.Millisecond) // 让排队方进入等待
	cancel()

	err := <-queuedDone
	assert.ErrorIs(t, err, ErrDeviceUnavailable)

	close(release)
	require.NoError(t, <-headDone)
}

func TestHardwareSigner_MalformedResponses(t *testing.T) {
	hash := sha256.Sum256([]byte("malformed"))

	tests := []struct {
		name string
		resp *DeviceResponse
	}{
		{"nil response payload", &DeviceResponse{}},
		{"missing signature", &DeviceResponse{Payload: map[string]any{"other": "x"}}},
		{"non-string signature", &DeviceResponse{Payload: map[string]any{DevicePayloadSignature: 42}}},
		{"bad hex", &DeviceResponse{Payload: map[string]any{DevicePayloadSignature: "zz"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			proxy := &scriptedProxy{
				handler: func(ctx context.Context, req *DeviceRequest) (*DeviceResponse, error) {
					return tt.resp, nil
				},
			}
			s := newTestHardwareSigner(t, types.MainnetParams, DeviceDescriptor{}, proxy)

			_, err := s.SignHash(context.Background(), types.DerivationPath{0}, hash[:])
			assert.ErrorIs(t, err, ErrDeviceUnavailable)
		})
	}
}
