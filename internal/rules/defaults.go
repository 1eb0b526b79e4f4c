package rules

// DefaultGroups returns the built-in category layout used when no rules file
// is configured. Order matters: more specific categories come before the
// catch-all loop/one-shot buckets.
func DefaultGroups() []Group {
	return []Group{
		{
			Name: "Drums",
			Categories: []CategoryConfig{
				{Name: "Kicks", Keywords: []string{"kick", "bd ", "bassdrum"}},
				{Name: "Snares", Keywords: []string{"snare", "sd ", "rimshot", "rim"}},
				{Name: "Claps", Keywords: []string{"clap"}},
				{Name: "Hats", Keywords: []string{"hat", "hh ", "hihat"}},
				{Name: "Cymbals", Keywords: []string{"crash", "ride", "cymbal"}},
				{Name: "Toms", Keywords: []string{"tom"}},
				{Name: "Percussion", Keywords: []string{"perc", "conga", "bongo", "shaker", "tamb", "cowbell"}},
				{Name: "Drum Loops", Keywords: []string{"drum loop", "break"}},
			},
		},
		{
			Name: "Bass",
			Categories: []CategoryConfig{
				{Name: "808s", Keywords: []string{"808"}},
				{Name: "Sub Bass", Keywords: []string{"sub", "bass"}, MatchAll: true},
				{Name: "Bass", Keywords: []string{"bass", "reese"}},
			},
		},
		{
			Name: "Melodic",
			Categories: []CategoryConfig{
				{Name: "Piano", Keywords: []string{"piano", "rhodes", "keys"}},
				{Name: "Synth", Keywords: []string{"synth", "lead", "pluck", "arp"}},
				{Name: "Pads", Keywords: []string{"pad", "ambient", "drone"}},
				{Name: "Guitar", Keywords: []string{"guitar"}},
				{Name: "Strings", Keywords: []string{"string", "violin", "cello"}},
				{Name: "Brass", Keywords: []string{"brass", "horn", "trumpet", "sax"}},
			},
		},
		{
			Name: "FX",
			Categories: []CategoryConfig{
				{Name: "Risers", Keywords: []string{"riser", "uplifter", "sweep"}},
				{Name: "Impacts", Keywords: []string{"impact", "hit", "slam"}},
				{Name: "Foley", Keywords: []string{"foley"}},
				{Name: "FX", Keywords: []string{"fx", "effect", "noise"}},
			},
		},
		{
			Name: "Vocals",
			Categories: []CategoryConfig{
				{Name: "Vocal Chops", Keywords: []string{"vocal chop", "vox chop"}},
				{Name: "Vocals", Keywords: []string{"vocal", "vox", "acapella", "adlib"}},
			},
		},
	}
}
