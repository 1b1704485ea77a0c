package array

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/golang/glog"
)

var digitsPattern = regexp.MustCompile(`[0-9]+`)

// Handshake waits for the ready banner from the firmware and records the
// array index and motor count it reports. The whole exchange is bounded
// by conf.HandshakeTimeout.
func Handshake(ctx context.Context, dev *Device, conf Config) error {
	dev.setState(StateAwaitingHandshake)
	ctx, cancel := context.WithTimeout(ctx, conf.HandshakeTimeout)
	defer cancel()
	for {
		payload, err := dev.Channel.ReadFrame(ctx)
		if err != nil {
			dev.setState(StateFailed)
			if errors.Is(err, context.DeadlineExceeded) {
				return deviceError(HandshakeTimeout, dev,
					fmt.Errorf("no %q within %s", conf.Sentinel, conf.HandshakeTimeout))
			}
			return deviceError(ConnectionError, dev, err)
		}
		msg := string(payload)
		if !strings.Contains(msg, conf.Sentinel) {
			glog.V(2).Infof("%s: ignore %q while waiting for ready", dev.Addr, msg)
			continue
		}
		index, motors, err := parseIdentity(msg)
		if err != nil {
			dev.setState(StateFailed)
			return deviceError(InvalidIdentity, dev, err)
		}
		dev.ArrayIndex, dev.MotorCount, dev.handshook = index, motors, true
		dev.setState(StateReady)
		glog.Infof("%s: ready with %d motors", dev, motors)
		return nil
	}
}

// parseIdentity takes the first two integers in msg as array index and
// motor count.
func parseIdentity(msg string) (index, motors int, err error) {
	locs := digitsPattern.FindAllStringIndex(msg, 2)
	if len(locs) < 2 {
		return 0, 0, fmt.Errorf("expect array index and motor count in %q", msg)
	}
	var nums [2]int
	for n, loc := range locs {
		if signedAt(msg, loc[0]) {
			return 0, 0, fmt.Errorf("negative array index or motor count in %q", msg)
		}
		if nums[n], err = strconv.Atoi(msg[loc[0]:loc[1]]); err != nil {
			return 0, 0, err
		}
	}
	return nums[0], nums[1], nil
}

// signedAt tells whether the digits at start carry a minus sign. A '-'
// is a sign only when it begins a token, so "fw-2" reads as 2.
func signedAt(msg string, start int) bool {
	if start == 0 || msg[start-1] != '-' {
		return false
	}
	return start == 1 || !isWordByte(msg[start-2])
}

func isWordByte(b byte) bool {
	return b == '_' || b >= '0' && b <= '9' || b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z'
}
