package params

const (
	MinimumAge            uint64 = 18  // Both sides of a pair must be at least this old to be eligible.
	MaximumAge            uint64 = 255 // Largest age an encrypted 8-bit field holds.
	PreferenceCount              = 3   // Number of preference fields compared by the scorer.
	PreferenceWeight      uint64 = 33  // Score contributed by each equal preference pair.
	MaxCompatibilityScore uint64 = PreferenceWeight * PreferenceCount

	NoMatchIndex uint64 = 0 // Slot index sentinel meaning "no match"; never assigned.
	FirstSlot    uint64 = 1 // First slot handed out by the registry.

	DefaultSearchBatchSize uint64 = 0 // Candidates scanned per search call, 0 scans the whole registry.
	DefaultStateCacheMB           = 32
)
