package extractor

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/yourusername/media-fetch-bot/internal/domain/media/entities"
)

// probeInfo mirrors the yt-dlp -J dump fields the engine cares about
type probeInfo struct {
	Title      string     `json:"title"`
	Duration   float64    `json:"duration"`
	Thumbnail  string     `json:"thumbnail"`
	WebpageURL string     `json:"webpage_url"`
	Formats    []probeFmt `json:"formats"`
}

type probeFmt struct {
	FormatID       string  `json:"format_id"`
	Ext            string  `json:"ext"`
	Protocol       string  `json:"protocol"`
	URL            string  `json:"url"`
	Height         int     `json:"height"`
	Vcodec         string  `json:"vcodec"`
	Acodec         string  `json:"acodec"`
	Filesize       int64   `json:"filesize"`
	FilesizeApprox int64   `json:"filesize_approx"`
	TBR            float64 `json:"tbr"`
	ABR            float64 `json:"abr"`
}

func (f *probeFmt) hasVideo() bool {
	return f.Vcodec != "" && f.Vcodec != "none"
}

func (f *probeFmt) hasAudio() bool {
	return f.Acodec != "" && f.Acodec != "none"
}

func (f *probeFmt) size() int64 {
	if f.Filesize > 0 {
		return f.Filesize
	}
	return f.FilesizeApprox
}

var heightClasses = []struct {
	height int
	class  entities.ResolutionClass
}{
	{1080, entities.Class1080},
	{720, entities.Class720},
	{480, entities.Class480},
	{360, entities.Class360},
}

// buildVariants turns a format dump into raw variant descriptors:
// one audio-only pick, a video-only pick per resolution bucket, a combined
// pick per bucket (separate tracks paired for muxing, progressive as
// fallback), and the best combined rendition. Order encodes the extractor's
// preference; the catalog dedupes with first-wins ties.
func buildVariants(info *probeInfo) []entities.VariantDescriptor {
	var out []entities.VariantDescriptor

	audio := pickAudio(info.Formats)

	if best := pickProgressive(info.Formats, 0); best != nil {
		out = append(out, entities.VariantDescriptor{
			FormatID:    best.FormatID,
			Kind:        entities.KindVideoAudio,
			Class:       entities.ClassBest,
			EstSize:     best.size(),
			BitrateKbps: best.TBR,
			Ext:         best.Ext,
			Height:      best.Height,
		})
	}

	for _, hc := range heightClasses {
		video := pickVideoOnly(info.Formats, hc.height)
		switch {
		case video != nil && audio != nil:
			est := int64(0)
			if video.size() > 0 && audio.size() > 0 {
				est = video.size() + audio.size()
			}
			out = append(out, entities.VariantDescriptor{
				FormatID:      video.FormatID,
				AudioFormatID: audio.FormatID,
				Kind:          entities.KindVideoAudio,
				Class:         hc.class,
				EstSize:       est,
				BitrateKbps:   video.TBR,
				Ext:           video.Ext,
				Height:        video.Height,
			})
		default:
			if prog := pickProgressive(info.Formats, hc.height); prog != nil {
				out = append(out, entities.VariantDescriptor{
					FormatID:    prog.FormatID,
					Kind:        entities.KindVideoAudio,
					Class:       hc.class,
					EstSize:     prog.size(),
					BitrateKbps: prog.TBR,
					Ext:         prog.Ext,
					Height:      prog.Height,
				})
			}
		}

		if video := pickVideoOnly(info.Formats, hc.height); video != nil {
			out = append(out, entities.VariantDescriptor{
				FormatID:    video.FormatID,
				Kind:        entities.KindVideoOnly,
				Class:       hc.class,
				EstSize:     video.size(),
				BitrateKbps: video.TBR,
				Ext:         video.Ext,
				Height:      video.Height,
			})
		}
	}

	if audio != nil {
		bitrate := audio.ABR
		if bitrate == 0 {
			bitrate = audio.TBR
		}
		out = append(out, entities.VariantDescriptor{
			FormatID:    audio.FormatID,
			Kind:        entities.KindAudioOnly,
			Class:       entities.ClassNone,
			EstSize:     audio.size(),
			BitrateKbps: bitrate,
			Ext:         audio.Ext,
		})
	}

	return out
}

// pickAudio prefers m4a, then other common containers, by bitrate.
func pickAudio(formats []probeFmt) *probeFmt {
	var best *probeFmt
	bestScore := -1.0
	for i := range formats {
		f := &formats[i]
		if !f.hasAudio() || f.hasVideo() {
			continue
		}
		score := f.ABR
		if score == 0 {
			score = f.TBR
		}
		switch strings.ToLower(f.Ext) {
		case "m4a":
			score += 20
		case "mp3", "ogg", "opus":
			score += 10
		}
		if score > bestScore {
			bestScore = score
			best = f
		}
	}
	return best
}

// pickVideoOnly returns the best video-only format at or under maxHeight.
func pickVideoOnly(formats []probeFmt, maxHeight int) *probeFmt {
	var best *probeFmt
	bestScore := -1.0
	for i := range formats {
		f := &formats[i]
		if !f.hasVideo() || f.hasAudio() {
			continue
		}
		if f.Height == 0 || f.Height > maxHeight {
			continue
		}
		score := float64(f.Height)/10 + f.TBR
		if strings.EqualFold(f.Ext, "mp4") {
			score += 50
		}
		if score > bestScore {
			bestScore = score
			best = f
		}
	}
	return best
}

// pickProgressive returns the best combined format; maxHeight 0 means any.
func pickProgressive(formats []probeFmt, maxHeight int) *probeFmt {
	var best *probeFmt
	bestScore := -1.0
	for i := range formats {
		f := &formats[i]
		if !f.hasVideo() || !f.hasAudio() {
			continue
		}
		if maxHeight > 0 && (f.Height == 0 || f.Height > maxHeight) {
			continue
		}
		score := float64(f.Height)/10 + f.TBR
		if strings.EqualFold(f.Ext, "mp4") {
			score += 50
		}
		if score > bestScore {
			bestScore = score
			best = f
		}
	}
	return best
}

// bestDirectURL scores every format carrying a direct URL under maxBytes:
// mp4 and muxed tracks over segmented protocols, then resolution and bitrate.
func bestDirectURL(info *probeInfo, maxBytes int64) string {
	var best *probeFmt
	bestScore := -1e9
	for i := range info.Formats {
		f := &info.Formats[i]
		if f.URL == "" {
			continue
		}
		if size := f.size(); size > 0 && size > maxBytes {
			continue
		}
		score := 0.0
		proto := strings.ToLower(f.Protocol)
		if strings.EqualFold(f.Ext, "mp4") {
			score += 50
		}
		// A link is watched as-is, so muxed formats beat bare video tracks.
		if f.hasVideo() && f.hasAudio() {
			score += 30
		}
		if strings.Contains(proto, "m3u8") || strings.Contains(proto, "hls") {
			score -= 20
		}
		if strings.Contains(proto, "dash") {
			score -= 15
		}
		score += float64(f.Height) / 1000
		score += f.TBR / 1000
		if score > bestScore {
			bestScore = score
			best = f
		}
	}
	if best == nil {
		return ""
	}
	return best.URL
}

// progressRe matches yt-dlp --newline download lines, e.g.
// "[download]  42.3% of 10.00MiB at 1.00MiB/s ETA 00:05"
var progressRe = regexp.MustCompile(`\[download\]\s+([0-9.]+)% of\s+~?\s*([0-9.]+)(KiB|MiB|GiB)`)

// parseProgressLine extracts (downloaded, total) bytes from a progress line.
func parseProgressLine(line string) (downloaded, total int64, ok bool) {
	m := progressRe.FindStringSubmatch(line)
	if m == nil {
		return 0, 0, false
	}
	pct, err1 := strconv.ParseFloat(m[1], 64)
	amount, err2 := strconv.ParseFloat(m[2], 64)
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	mult := float64(1 << 10)
	switch m[3] {
	case "MiB":
		mult = 1 << 20
	case "GiB":
		mult = 1 << 30
	}
	total = int64(amount * mult)
	downloaded = int64(float64(total) * pct / 100)
	return downloaded, total, true
}
