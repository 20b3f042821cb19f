package catalog

import "strings"

// hlsManifestExt marks an HLS rendition even when the provider mislabels
// the videoType.
const hlsManifestExt = ".m3u8"

// Primary is the rendition chosen to represent an episode when only one
// reference is needed (RSS enclosure, audio extraction).
type Primary struct {
	URL     string
	Quality string
}

// ClassifyFormats buckets raw descriptors into a FormatSet and selects the
// primary rendition.
//
// Bucketing: HLS descriptors (declared type or manifest extension) land
// under "hls"; MP4 descriptors under "mp4_<quality>" with quality
// lowercased, defaulting to "hd". Duplicate keys are last-writer-wins.
// Unknown types are dropped silently.
//
// The primary is always the first descriptor in provider order: the feed's
// natural order already encodes its preferred rendition, so no ranking
// policy is invented here. An empty descriptor list yields an empty set
// and no primary, which means "no playable video", not an error.
func ClassifyFormats(videos []RawVideoDescriptor) (FormatSet, Primary) {
	formats := make(FormatSet, len(videos))
	var primary Primary

	for i, v := range videos {
		if i == 0 {
			primary.URL = v.URL
			primary.Quality = v.Quality
			if primary.Quality == "" {
				primary.Quality = "HD"
			}
		}
		switch {
		case v.VideoType == VideoHLS || strings.HasSuffix(v.URL, hlsManifestExt):
			formats["hls"] = v.URL
		case v.VideoType == VideoMP4:
			q := strings.ToLower(v.Quality)
			if q == "" {
				q = "hd"
			}
			formats["mp4_"+q] = v.URL
		}
	}
	return formats, primary
}
