// signerctl 签名器命令行工具
//
// 生成助记词、派生扩展公钥/地址、派生盲化密钥，用于开发与调试。
// 助记词通过终端安全输入，不出现在命令行参数或 shell 历史中。
package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/base58"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/glacierwallet/v1/client/core/signer"
	"github.com/glacierwallet/v1/pkg/types"
)

var (
	flagNetwork  string
	flagWords    int
	flagPath     string
	flagMnemonic string
	flagScript   string
)

var rootCmd = &cobra.Command{
	Use:   "signerctl",
	Short: "Glacier 签名器工具",
	Long:  "生成助记词、派生扩展公钥与地址、派生盲化密钥",
}

// mnemonicNewCmd 生成新助记词
var mnemonicNewCmd = &cobra.Command{
	Use:   "mnemonic",
	Short: "生成新助记词",
	RunE: func(cmd *cobra.Command, args []string) error {
		strength := signer.Mnemonic12Words
		if flagWords == 24 {
			strength = signer.Mnemonic24Words
		} else if flagWords != 12 {
			return fmt.Errorf("unsupported word count: %d (12 or 24)", flagWords)
		}

		mnemonic, err := signer.GenerateMnemonic(strength)
		if err != nil {
			return err
		}
		fmt.Println(mnemonic)
		return nil
	},
}

// xpubCmd 派生扩展公钥
var xpubCmd = &cobra.Command{
	Use:   "xpub",
	Short: "派生 m/<path> 处的扩展公钥",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := buildSoftwareSigner()
		if err != nil {
			return err
		}
		defer s.Close()

		path, err := types.ParseDerivationPath(flagPath)
		if err != nil {
			return err
		}
		xpub, err := s.GetBIP32Xpub(context.Background(), path)
		if err != nil {
			return err
		}
		fmt.Println(xpub)
		return nil
	},
}

// addressCmd 派生 P2PKH 地址
var addressCmd = &cobra.Command{
	Use:   "address",
	Short: "派生 m/<path> 处的 P2PKH 地址",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := buildSoftwareSigner()
		if err != nil {
			return err
		}
		defer s.Close()

		path, err := types.ParseDerivationPath(flagPath)
		if err != nil {
			return err
		}
		xpub, err := s.GetXpub(context.Background(), path)
		if err != nil {
			return err
		}
		pub, err := xpub.ECPubKey()
		if err != nil {
			return err
		}

		version := s.Network().AddressVersion
		address := base58.CheckEncode(btcutil.Hash160(pub.SerializeCompressed()), version)
		fmt.Println(address)
		return nil
	},
}

// blindingKeyCmd 派生输出脚本的盲化公钥
var blindingKeyCmd = &cobra.Command{
	Use:   "blinding-key",
	Short: "派生输出脚本的盲化公钥（机密资产链）",
	RunE: func(cmd *cobra.Command, args []string) error {
		script, err := hex.DecodeString(strings.TrimPrefix(flagScript, "0x"))
		if err != nil {
			return fmt.Errorf("decode script hex: %w", err)
		}

		s, err := buildSoftwareSigner()
		if err != nil {
			return err
		}
		defer s.Close()

		pubkey, err := s.BlindingPubkeyFromScript(script)
		if err != nil {
			return err
		}
		fmt.Println(hex.EncodeToString(pubkey))
		return nil
	},
}

// buildSoftwareSigner 从参数或终端输入构造软件签名器
func buildSoftwareSigner() (*signer.SoftwareSigner, error) {
	net, err := types.NetworkByName(flagNetwork)
	if err != nil {
		return nil, err
	}

	credential := flagMnemonic
	if credential == "" {
		credential, err = promptSecret("请输入助记词或扩展密钥")
		if err != nil {
			return nil, err
		}
	}

	factory := signer.NewFactory(net)
	return factory.Software(credential)
}

// promptSecret 终端安全输入（不回显）
func promptSecret(prompt string) (string, error) {
	fmt.Fprintf(os.Stderr, "%s: ", prompt)
	input, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("read input: %w", err)
	}
	return strings.TrimSpace(string(input)), nil
}

func main() {
	rootCmd.PersistentFlags().StringVar(&flagNetwork, "network", "mainnet", "网络名称 (mainnet/testnet/liquid/testnet-liquid)")

	mnemonicNewCmd.Flags().IntVar(&flagWords, "words", 12, "助记词单词数 (12 或 24)")

	for _, cmd := range []*cobra.Command{xpubCmd, addressCmd, blindingKeyCmd} {
		cmd.Flags().StringVar(&flagPath, "path", "m", "BIP32 派生路径")
		cmd.Flags().StringVar(&flagMnemonic, "mnemonic", "", "助记词或扩展密钥（省略则从终端输入）")
	}
	blindingKeyCmd.Flags().StringVar(&flagScript, "script", "", "输出脚本（hex）")

	rootCmd.AddCommand(mnemonicNewCmd, xpubCmd, addressCmd, blindingKeyCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
