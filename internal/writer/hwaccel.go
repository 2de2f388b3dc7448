package writer

import (
	"bufio"
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
)

// HWAccelType represents a hardware acceleration type
type HWAccelType string

const (
	HWAccelNone         HWAccelType = "none"         // Let ffmpeg pick a software encoder
	HWAccelAuto         HWAccelType = "auto"         // Auto-detect best available
	HWAccelNVENC        HWAccelType = "nvenc"        // NVIDIA NVENC
	HWAccelQSV          HWAccelType = "qsv"          // Intel Quick Sync Video
	HWAccelVAAPI        HWAccelType = "vaapi"        // VA-API (AMD, Intel, older hardware)
	HWAccelVulkan       HWAccelType = "vulkan"       // Vulkan Video
	HWAccelVideoToolbox HWAccelType = "videotoolbox" // Apple VideoToolbox (macOS)
)

// HWEncoder represents a detected hardware encoder
type HWEncoder struct {
	Name        string      // Encoder name (e.g., "h264_nvenc")
	Type        HWAccelType // Hardware acceleration type
	Available   bool        // Whether the encoder opened during a trial encode
	Description string      // Human-readable description
}

type encoderSpec struct {
	name      string
	accelType HWAccelType
	desc      string
}

// linuxEncoderPriority: nvenc > qsv > vaapi > vulkan > software
var linuxEncoderPriority = []encoderSpec{
	{"h264_nvenc", HWAccelNVENC, "NVIDIA NVENC"},
	{"h264_qsv", HWAccelQSV, "Intel Quick Sync Video"},
	{"h264_vaapi", HWAccelVAAPI, "VA-API"},
	{"h264_vulkan", HWAccelVulkan, "Vulkan Video"},
}

var macOSEncoderPriority = []encoderSpec{
	{"h264_videotoolbox", HWAccelVideoToolbox, "Apple VideoToolbox"},
}

// ParseHWAccel validates a user supplied acceleration name.
func ParseHWAccel(s string) (HWAccelType, error) {
	switch t := HWAccelType(strings.ToLower(strings.TrimSpace(s))); t {
	case HWAccelNone, HWAccelAuto, HWAccelNVENC, HWAccelQSV, HWAccelVAAPI, HWAccelVulkan, HWAccelVideoToolbox:
		return t, nil
	case "":
		return HWAccelNone, nil
	default:
		return "", fmt.Errorf("unknown hardware acceleration %q", s)
	}
}

// ParseEncoders extracts video encoder names from `ffmpeg -encoders` output.
// Encoder rows start with a capability field whose first letter is V.
func ParseEncoders(output string) map[string]bool {
	encoders := make(map[string]bool)
	scanner := bufio.NewScanner(strings.NewReader(output))
	pastHeader := false
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 {
			continue
		}
		if fields[0] == "------" {
			pastHeader = true
			continue
		}
		if !pastHeader {
			continue
		}
		caps := fields[0]
		if len(caps) == 6 && caps[0] == 'V' {
			encoders[fields[1]] = true
		}
	}
	return encoders
}

func encoderPriority() []encoderSpec {
	if runtime.GOOS == "darwin" {
		return macOSEncoderPriority
	}
	return linuxEncoderPriority
}

// testEncoderAvailable performs a one-frame trial encode. A compiled-in
// encoder still fails here when the device is missing.
func testEncoderAvailable(ctx context.Context, binary, encoderName string) bool {
	cmd := exec.CommandContext(ctx, binary,
		"-hide_banner", "-loglevel", "quiet",
		"-f", "lavfi", "-i", "color=black:s=256x256:d=0.1",
		"-frames:v", "1",
		"-c:v", encoderName,
		"-f", "null", "-",
	)
	return cmd.Run() == nil
}

// DetectHWEncoders probes the encoders ffmpeg was built with, in priority
// order, marking those that survive a trial encode.
func DetectHWEncoders(ctx context.Context, binary string) ([]HWEncoder, error) {
	out, err := exec.CommandContext(ctx, binary, "-hide_banner", "-encoders").Output()
	if err != nil {
		return nil, fmt.Errorf("listing %s encoders: %w", binary, err)
	}
	compiled := ParseEncoders(string(out))

	var encoders []HWEncoder
	for _, spec := range encoderPriority() {
		enc := HWEncoder{
			Name:        spec.name,
			Type:        spec.accelType,
			Description: spec.desc,
		}
		if compiled[spec.name] {
			enc.Available = testEncoderAvailable(ctx, binary, spec.name)
		}
		encoders = append(encoders, enc)
	}

	return encoders, nil
}

// SelectEncoder picks from already detected encoders.
// HWAccelNone returns nil (ffmpeg's default software encoder), HWAccelAuto
// returns the first available encoder, any other type returns that encoder
// when available.
func SelectEncoder(requested HWAccelType, encoders []HWEncoder) *HWEncoder {
	if requested == HWAccelNone {
		return nil
	}

	for i := range encoders {
		if !encoders[i].Available {
			continue
		}
		if requested == HWAccelAuto || encoders[i].Type == requested {
			return &encoders[i]
		}
	}

	return nil
}

// EncoderStatus returns a human-readable status of detected encoders.
func EncoderStatus(encoders []HWEncoder) string {
	var sb strings.Builder
	sb.WriteString("Hardware Encoder Status:\n")

	for _, enc := range encoders {
		status := "not available"
		if enc.Available {
			status = "available"
		}
		fmt.Fprintf(&sb, "  %s (%s): %s\n", enc.Description, enc.Name, status)
	}

	return sb.String()
}
