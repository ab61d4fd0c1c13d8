package jail

const sep = '/'

type scanState int

const (
	noDanger scanState = iota
	componentStart
	oneDotSeen
	twoDotsSeen
	twoDotsConfirmed
)

// ContainsTwoDots reports whether path has a component that is exactly "..",
// either followed by a separator or at the end of the string.
//
// This is a literal component detector, not a path normalizer: "." components,
// repeated separators and symlinks are not resolved. It only stops the
// simplest traversal strings.
func ContainsTwoDots(path string) bool {
	state := componentStart
	for i := 0; i < len(path) && state != twoDotsConfirmed; i++ {
		c := path[i]
		switch state {
		case noDanger:
			if c == sep {
				state = componentStart
			}
		case componentStart:
			switch c {
			case '.':
				state = oneDotSeen
			case sep:
			default:
				state = noDanger
			}
		case oneDotSeen:
			switch c {
			case '.':
				state = twoDotsSeen
			case sep:
				state = componentStart
			default:
				state = noDanger
			}
		case twoDotsSeen:
			if c == sep {
				state = twoDotsConfirmed
			} else {
				state = noDanger
			}
		case twoDotsConfirmed:
		}
	}
	return state == twoDotsSeen || state == twoDotsConfirmed
}
