// Command brontide-demo exercises the handshake and transport cipher
// over a real TCP connection. Socket acceptance, dialing, and the CLI
// live here as a thin caller; the brontide packages themselves never
// touch a socket.
package main

import (
	"bufio"
	"encoding/hex"
	"errors"
	"fmt"
	"net"
	"os"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/spf13/cobra"

	"brontide"
	brontidecrypto "brontide/crypto"
	"brontide/internal/logging"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var logLevel string

	root := &cobra.Command{
		Use:   "brontide-demo",
		Short: "Exercise a BOLT-8 handshake and transport cipher over TCP",
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "debug|info|warn|error")

	root.AddCommand(newListenCmd(&logLevel), newDialCmd(&logLevel))
	return root
}

func newListenCmd(logLevel *string) *cobra.Command {
	var addr, staticKeyHex string

	cmd := &cobra.Command{
		Use:   "listen",
		Short: "Accept a single inbound peer connection and echo its messages",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := logging.New(logging.ParseLevel(*logLevel), os.Stdout)
			localStatic, err := loadOrGenerateKey(staticKeyHex, logger)
			if err != nil {
				return err
			}

			ln, err := net.Listen("tcp", addr)
			if err != nil {
				return err
			}
			defer ln.Close()
			logger.Info("listening", map[string]interface{}{"addr": ln.Addr().String()})

			conn, err := ln.Accept()
			if err != nil {
				return err
			}
			defer conn.Close()

			localEphemeral, err := brontidecrypto.GeneratePrivateKey()
			if err != nil {
				return err
			}

			hs := brontide.NewInbound(localStatic, localEphemeral)
			completed, err := runResponderHandshake(conn, hs)
			if err != nil {
				return err
			}
			logger.Info("handshake complete", map[string]interface{}{
				"peer_static": hex.EncodeToString(brontidecrypto.SerializePublicKey(completed.PeerStaticPubKey)),
			})

			return echoLoop(conn, completed, logger)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:9735", "address to listen on")
	cmd.Flags().StringVar(&staticKeyHex, "static-key", "", "hex-encoded 32-byte static private key (random if empty)")
	return cmd
}

func newDialCmd(logLevel *string) *cobra.Command {
	var addr, staticKeyHex, remoteStaticHex string

	cmd := &cobra.Command{
		Use:   "dial",
		Short: "Connect to a listening peer and send a line of stdin",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := logging.New(logging.ParseLevel(*logLevel), os.Stdout)
			localStatic, err := loadOrGenerateKey(staticKeyHex, logger)
			if err != nil {
				return err
			}
			if remoteStaticHex == "" {
				return errors.New("--remote-static is required")
			}
			remoteStaticBytes, err := hex.DecodeString(remoteStaticHex)
			if err != nil {
				return fmt.Errorf("decoding --remote-static: %w", err)
			}
			remoteStatic, err := brontidecrypto.ParsePublicKey(remoteStaticBytes)
			if err != nil {
				return err
			}

			conn, err := net.Dial("tcp", addr)
			if err != nil {
				return err
			}
			defer conn.Close()

			localEphemeral, err := brontidecrypto.GeneratePrivateKey()
			if err != nil {
				return err
			}

			hs := brontide.NewOutbound(localStatic, localEphemeral, remoteStatic)
			completed, err := runInitiatorHandshake(conn, hs)
			if err != nil {
				return err
			}
			logger.Info("handshake complete", map[string]interface{}{
				"peer_static": hex.EncodeToString(brontidecrypto.SerializePublicKey(completed.PeerStaticPubKey)),
			})

			return echoLoop(conn, completed, logger)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:9735", "address to dial")
	cmd.Flags().StringVar(&staticKeyHex, "static-key", "", "hex-encoded 32-byte static private key (random if empty)")
	cmd.Flags().StringVar(&remoteStaticHex, "remote-static", "", "hex-encoded compressed static public key of the peer")
	return cmd
}

func loadOrGenerateKey(hexKey string, logger *logging.Logger) (*btcec.PrivateKey, error) {
	if hexKey == "" {
		priv, err := brontidecrypto.GeneratePrivateKey()
		if err != nil {
			return nil, err
		}
		logger.Debug("generated static key", map[string]interface{}{
			"pubkey": hex.EncodeToString(brontidecrypto.SerializePublicKey(priv.PubKey())),
		})
		return priv, nil
	}
	raw, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("decoding --static-key: %w", err)
	}
	if len(raw) != brontidecrypto.PrivateKeySize {
		return nil, fmt.Errorf("--static-key must be %d bytes", brontidecrypto.PrivateKeySize)
	}
	priv, _ := btcec.PrivKeyFromBytes(raw)
	return priv, nil
}

// runInitiatorHandshake drives Act 1 -> Act 2 -> Act 3 for the dialing
// side, reading exactly as many bytes as each act needs.
func runInitiatorHandshake(conn net.Conn, hs *brontide.Handshake) (*brontide.CompletedHandshake, error) {
	act1 := hs.SetUpOutbound()
	if _, err := conn.Write(act1); err != nil {
		return nil, err
	}

	act2 := make([]byte, 50)
	if _, err := readFull(conn, act2); err != nil {
		return nil, err
	}
	act3, completed, err := hs.ProcessAct(act2)
	if err != nil {
		return nil, err
	}
	if _, err := conn.Write(act3); err != nil {
		return nil, err
	}
	if completed == nil {
		return nil, errors.New("handshake did not complete after act three")
	}
	return completed, nil
}

// runResponderHandshake drives Act 1 -> Act 2 -> Act 3 for the accepting
// side.
func runResponderHandshake(conn net.Conn, hs *brontide.Handshake) (*brontide.CompletedHandshake, error) {
	act1 := make([]byte, 50)
	if _, err := readFull(conn, act1); err != nil {
		return nil, err
	}
	act2, _, err := hs.ProcessAct(act1)
	if err != nil {
		return nil, err
	}
	if _, err := conn.Write(act2); err != nil {
		return nil, err
	}

	act3 := make([]byte, 66)
	if _, err := readFull(conn, act3); err != nil {
		return nil, err
	}
	_, completed, err := hs.ProcessAct(act3)
	if err != nil {
		return nil, err
	}
	if completed == nil {
		return nil, errors.New("handshake did not complete after act three")
	}
	return completed, nil
}

func readFull(conn net.Conn, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := conn.Read(buf[total:])
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

func echoLoop(conn net.Conn, completed *brontide.CompletedHandshake, logger *logging.Logger) error {
	stdin := bufio.NewScanner(os.Stdin)
	go func() {
		for stdin.Scan() {
			ciphertext, err := completed.Encryptor.EncryptBuf(stdin.Bytes())
			if err != nil {
				logger.Error("encrypt failed", map[string]interface{}{"error": err.Error()})
				return
			}
			if _, err := conn.Write(ciphertext); err != nil {
				logger.Error("write failed", map[string]interface{}{"error": err.Error()})
				return
			}
		}
	}()

	buf := make([]byte, 4096)
	for {
		n, err := conn.Read(buf)
		if n > 0 {
			if decErr := completed.Decryptor.Read(buf[:n]); decErr != nil {
				return decErr
			}
			for {
				payload, ok := completed.Decryptor.NextPayload()
				if !ok {
					break
				}
				logger.Info("received", map[string]interface{}{"payload": string(payload)})
			}
		}
		if err != nil {
			return err
		}
	}
}
