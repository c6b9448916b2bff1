package main

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/nvr-ai/go-skills/common"
	"github.com/nvr-ai/go-skills/inference/providers"
)

// chooseDevice picks the execution device.
//
// A configured kind selects the first device of that kind. Otherwise, in
// interactive mode, the devices are listed and one is read from in; an empty
// answer takes the best device. Without either the best device is used.
func chooseDevice(devices []providers.ExecutionDevice, kind string, interactive bool, in *bufio.Reader, out io.Writer) (providers.ExecutionDevice, error) {
	const op = "sentiment.chooseDevice"

	if kind != "" {
		k, ok := providers.ParseDeviceKind(kind)
		if !ok {
			return providers.ExecutionDevice{}, common.Errorf(common.KindInvalidArgument, op, "unknown device kind %q", kind)
		}
		return providers.FindDevice(devices, k)
	}
	if !interactive || len(devices) < 2 {
		return providers.SelectBestDevice(devices)
	}

	fmt.Fprintln(out, "Available execution devices:")
	for i, d := range devices {
		fmt.Fprintf(out, "  %d: %s\n", i, d)
	}
	fmt.Fprintf(out, "Select an execution device [0-%d, Enter for best]: ", len(devices)-1)

	line, err := in.ReadString('\n')
	if err != nil && line == "" {
		return providers.SelectBestDevice(devices)
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return providers.SelectBestDevice(devices)
	}

	i, err := strconv.Atoi(line)
	if err != nil || i < 0 || i >= len(devices) {
		return providers.ExecutionDevice{}, common.Errorf(common.KindInvalidArgument, op, "invalid device selection %q", line)
	}
	return devices[i], nil
}
