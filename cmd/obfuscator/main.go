// Command obfuscator encrypts a model file with a GUID key and verifies the
// result decrypts back to the original bytes.
package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/nvr-ai/go-skills/common"
	"github.com/nvr-ai/go-skills/logging"
	"github.com/nvr-ai/go-skills/obfuscation"
)

const usage = "Usage: obfuscator InputFileNameWithPath OutputFilePathOnly OutputFileNameOnly GuidKeyWithoutBraces"

// exitFailure is returned for a wrong argument count and a failed verification.
const exitFailure = -1

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the command and returns the process exit status.
func run(args []string, stdout, stderr io.Writer) int {
	exit := 0
	var logLevel string

	cmd := &cobra.Command{
		Use:           "obfuscator InputFileNameWithPath OutputFilePathOnly OutputFileNameOnly GuidKeyWithoutBraces",
		Short:         "Obfuscate a model file with a GUID key",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 4 {
				fmt.Fprintln(stdout, usage)
				exit = exitFailure
				return nil
			}
			logging.Init(logLevel, "text")
			exit = obfuscate(stdout, args[0], args[1], args[2], args[3])
			return nil
		},
	}
	if args == nil {
		args = []string{}
	}
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.Flags().StringVar(&logLevel, "log-level", "warn", "Log level: debug, info, warn, error")

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(stderr, err)
		return exitFailure
	}
	return exit
}

func obfuscate(stdout io.Writer, inFile, outDir, outName, guid string) int {
	fmt.Fprintf(stdout, "\nAttempting to perform obfuscation using:\n inFileName = %s\n outFilePath = %s\n outFileName = %s\n strkey = %s\n",
		inFile, outDir, outName, guid)

	outFile := filepath.Join(outDir, outName)
	match, err := obfuscateAndVerify(inFile, outFile, guid)
	if err != nil {
		fmt.Fprintf(stdout, "\nError during model encryption: %x::%s\n", errorCode(err), err)
		return common.ExitCode(err)
	}
	if !match {
		fmt.Fprintf(stdout, "\nVerification failed: %s does not decrypt to %s\n", outFile, inFile)
		return exitFailure
	}

	fmt.Fprintf(stdout, "\nObfuscated model written to %s\n", outFile)
	return 0
}

func obfuscateAndVerify(inFile, outFile, guid string) (bool, error) {
	log := logging.L()

	key, err := obfuscation.ParseKey(guid)
	if err != nil {
		return false, err
	}
	if err := obfuscation.ObfuscateFile(inFile, outFile, key); err != nil {
		return false, err
	}
	log.Debug("model obfuscated", "input", inFile, "output", outFile)

	decoded, err := obfuscation.DeobfuscateFile(outFile, key)
	if err != nil {
		return false, errors.Wrap(err, "verify")
	}
	original, err := os.ReadFile(inFile)
	if err != nil {
		return false, common.E(common.KindIO, "verify", err)
	}
	log.Debug("round trip checked", "bytes", len(original))
	return bytes.Equal(decoded, original), nil
}

// errorCode is the platform code carried by err, or its exit status.
func errorCode(err error) uint32 {
	if code := common.CodeOf(err); code != 0 {
		return code
	}
	return uint32(common.ExitCode(err))
}
