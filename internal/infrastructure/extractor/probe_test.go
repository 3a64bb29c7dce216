package extractor

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yourusername/media-fetch-bot/internal/domain/media/entities"
	mediaerrors "github.com/yourusername/media-fetch-bot/internal/domain/media/errors"
)

const sampleDump = `{
	"title": "Test Clip",
	"duration": 120.5,
	"thumbnail": "https://example.com/t.jpg",
	"webpage_url": "https://example.com/watch?v=1",
	"formats": [
		{"format_id": "140", "ext": "m4a", "acodec": "mp4a.40.2", "vcodec": "none", "abr": 128, "filesize": 2000000, "url": "https://cdn/a"},
		{"format_id": "247", "ext": "webm", "acodec": "none", "vcodec": "vp9", "height": 720, "tbr": 1200, "filesize": 12000000, "url": "https://cdn/v720w"},
		{"format_id": "136", "ext": "mp4", "acodec": "none", "vcodec": "avc1", "height": 720, "tbr": 1400, "filesize": 14000000, "url": "https://cdn/v720"},
		{"format_id": "137", "ext": "mp4", "acodec": "none", "vcodec": "avc1", "height": 1080, "tbr": 2500, "filesize_approx": 30000000, "url": "https://cdn/v1080"},
		{"format_id": "22", "ext": "mp4", "acodec": "mp4a.40.2", "vcodec": "avc1", "height": 720, "tbr": 1600, "filesize": 17000000, "url": "https://cdn/p720", "protocol": "https"},
		{"format_id": "hls", "ext": "mp4", "acodec": "mp4a.40.2", "vcodec": "avc1", "height": 1080, "tbr": 2800, "url": "https://cdn/hls", "protocol": "m3u8_native"}
	]
}`

func parsedDump(t *testing.T) *probeInfo {
	t.Helper()
	var info probeInfo
	require.NoError(t, json.Unmarshal([]byte(sampleDump), &info))
	return &info
}

func TestBuildVariants_BucketsAndMuxPairs(t *testing.T) {
	info := parsedDump(t)
	variants := buildVariants(info)

	byKey := map[string]entities.VariantDescriptor{}
	for _, v := range variants {
		byKey[string(v.Kind)+"/"+string(v.Class)] = v
	}

	// Combined 720p pairs the mp4 video-only track with the audio track.
	va720, ok := byKey["va/720"]
	require.True(t, ok)
	require.Equal(t, "136", va720.FormatID)
	require.Equal(t, "140", va720.AudioFormatID)
	require.Equal(t, int64(16000000), va720.EstSize, "pair estimate sums both tracks")

	// 1080p video-only bucket picks the only 1080 track.
	v1080, ok := byKey["v/1080"]
	require.True(t, ok)
	require.Equal(t, "137", v1080.FormatID)

	// Audio-only bucket present with declared bitrate.
	a, ok := byKey["a/"]
	require.True(t, ok)
	require.Equal(t, "140", a.FormatID)
	require.Equal(t, float64(128), a.BitrateKbps)

	// Best combined bucket prefers the progressive mp4.
	best, ok := byKey["va/best"]
	require.True(t, ok)
	require.Equal(t, "hls", best.FormatID)
}

func TestBuildVariants_NoAudioFallsBackToProgressive(t *testing.T) {
	info := &probeInfo{Formats: []probeFmt{
		{FormatID: "p360", Ext: "mp4", Acodec: "aac", Vcodec: "avc1", Height: 360, Filesize: 4 << 20},
	}}

	variants := buildVariants(info)
	var va360 *entities.VariantDescriptor
	for i, v := range variants {
		if v.Kind == entities.KindVideoAudio && v.Class == entities.Class360 {
			va360 = &variants[i]
		}
	}
	require.NotNil(t, va360)
	require.Equal(t, "p360", va360.FormatID)
	require.Empty(t, va360.AudioFormatID)
}

func TestBestDirectURL_PrefersMP4OverSegmented(t *testing.T) {
	info := parsedDump(t)

	url := bestDirectURL(info, 4<<30)
	require.Equal(t, "https://cdn/p720", url, "plain https mp4 beats the hls manifest")
}

func TestBestDirectURL_RespectsSizeCap(t *testing.T) {
	info := &probeInfo{Formats: []probeFmt{
		{FormatID: "big", Ext: "mp4", URL: "https://cdn/big", Filesize: 100 << 20},
		{FormatID: "small", Ext: "mp4", URL: "https://cdn/small", Filesize: 10 << 20},
	}}

	require.Equal(t, "https://cdn/small", bestDirectURL(info, 50<<20))
	require.Equal(t, "", bestDirectURL(&probeInfo{}, 50<<20))
}

func TestParseProgressLine(t *testing.T) {
	tests := []struct {
		name     string
		line     string
		wantOK   bool
		wantPct  float64
		wantTotl int64
	}{
		{"mib", "[download]  42.3% of 10.00MiB at 1.00MiB/s ETA 00:05", true, 42.3, 10 << 20},
		{"approx total", "[download]  10.0% of ~ 1.50GiB at 5.00MiB/s ETA 04:45", true, 10, 3221225472 / 2},
		{"kib", "[download] 100.0% of 500.00KiB in 00:01", true, 100, 512000},
		{"noise", "[info] Writing video metadata", false, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			downloaded, total, ok := parseProgressLine(tt.line)
			require.Equal(t, tt.wantOK, ok)
			if !ok {
				return
			}
			require.Equal(t, tt.wantTotl, total)
			require.InDelta(t, tt.wantPct, float64(downloaded)/float64(total)*100, 0.5)
		})
	}
}

func TestClassifyExtractionError(t *testing.T) {
	tests := []struct {
		stderr string
		want   error
	}{
		{"ERROR: Unsupported URL: https://example.com", mediaerrors.ErrUnsupportedSource},
		{"ERROR: Private video. Sign in if you've been granted access", mediaerrors.ErrPrivateOrUnavailable},
		{"ERROR: Video unavailable", mediaerrors.ErrPrivateOrUnavailable},
		{"ERROR: something exploded", mediaerrors.ErrExtractionFailed},
	}

	for _, tt := range tests {
		got := classifyExtractionError(tt.stderr, nil)
		require.ErrorIs(t, got, tt.want, "stderr %q", tt.stderr)
	}
}
