package config

const (
	defaultLogDir          = "~/.local/share/samplesort/logs"
	defaultMode            = "move"
	defaultFallback        = "Miscellaneous"
	defaultMIDIFolder      = "MIDI"
	defaultHashAlgorithm   = "sha256"
	defaultDedupePolicy    = "skip"
	defaultQuarantineDir   = "_Duplicates"
	defaultFFprobeBinary   = "ffprobe"
	defaultDecodeSizeCapMB = 64
	defaultLogFormat       = "console"
	defaultLogLevel        = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			LogDir: defaultLogDir,
		},
		Organize: Organize{
			Mode:             defaultMode,
			Extensions:       []string{".wav", ".aif", ".aiff", ".flac", ".mp3", ".ogg", ".mid", ".midi"},
			FallbackCategory: defaultFallback,
			MIDIFolderName:   defaultMIDIFolder,
			ExpandArchives:   true,
		},
		Dedupe: Dedupe{
			Enabled:       true,
			Algorithm:     defaultHashAlgorithm,
			Policy:        defaultDedupePolicy,
			QuarantineDir: defaultQuarantineDir,
		},
		TempoKey: TempoKey{
			SortByKey:       true,
			FilenameBPM:     true,
			FFprobeBinary:   defaultFFprobeBinary,
			DecodeSizeCapMB: defaultDecodeSizeCapMB,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
