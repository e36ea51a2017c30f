package batch

// FileRemover exports fileRemover for mocks.
type FileRemover = fileRemover
