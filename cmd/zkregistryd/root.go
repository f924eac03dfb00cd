package main

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "zkregistryd",
	Short: "Pseudonymous membership registry for the veilchat platform",
	Long: `zkregistryd issues pseudonymous membership credentials and verifies
zero-knowledge membership proofs against an append-only Merkle
accumulator. Proof generation happens in an external prover toolchain;
this daemon only registers commitments and verifies proofs.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}
