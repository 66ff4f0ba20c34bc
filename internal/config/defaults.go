package config

const (
	defaultConfigPath       = "~/.config/keyframer/config.toml"
	defaultFramesDir        = "frames"
	defaultOutputDir        = "keyframes"
	defaultCacheDirFallback = "~/.cache/keyframer"
	defaultCacheFile        = "results.db"
	defaultLogDir           = "~/.local/share/keyframer/logs"
	defaultFFmpeg           = "ffmpeg"
	defaultFFprobe          = "ffprobe"
	defaultImageExt         = "jpg"
	defaultQuality          = 1
	defaultMinFreeGiB       = 1
	defaultMethod           = MethodIFrames
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
)

// Selection method names. The keyframe package builds its Method values from
// these.
const (
	MethodIFrames = "iframes"
	MethodColor   = "color"
	MethodFlow    = "flow"
)

// ValidMethods lists the accepted selection.method values in display order.
var ValidMethods = []string{MethodIFrames, MethodColor, MethodFlow}

// ValidImageExts lists the frame image formats that both ffmpeg can write and
// the frame loader can decode.
var ValidImageExts = []string{"jpg", "jpeg", "png", "bmp", "tiff", "webp"}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			FramesDir: defaultFramesDir,
			OutputDir: defaultOutputDir,
			CacheDir:  defaultCacheDir(),
			LogDir:    defaultLogDir,
		},
		Binaries: Binaries{
			FFmpeg:  defaultFFmpeg,
			FFprobe: defaultFFprobe,
		},
		Extraction: Extraction{
			ImageExt:     defaultImageExt,
			Quality:      defaultQuality,
			RemoveFrames: true,
			MinFreeGiB:   defaultMinFreeGiB,
		},
		Selection: Selection{
			Method: defaultMethod,
		},
		Cache: Cache{
			Enabled: true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
