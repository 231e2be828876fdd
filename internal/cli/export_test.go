package cli

// Export internal functions for testing.

// RunMerge exports runMerge for testing.
var RunMerge = runMerge

// RunChapters exports runChapters for testing.
var RunChapters = runChapters

// RunConfigSet exports runConfigSet for testing.
var RunConfigSet = runConfigSet

// RunConfigGet exports runConfigGet for testing.
var RunConfigGet = runConfigGet

// RunConfigList exports runConfigList for testing.
var RunConfigList = runConfigList

// BuildMergeConfig exports buildMergeConfig for testing.
var BuildMergeConfig = buildMergeConfig

// WriteChapterTable exports writeChapterTable for testing.
var WriteChapterTable = writeChapterTable

// IsValidConfigKey exports isValidConfigKey for testing.
var IsValidConfigKey = isValidConfigKey

// MergeOptions exports mergeOptions for testing.
type MergeOptions = mergeOptions
