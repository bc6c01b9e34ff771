package model

// Origin tells where an entry came from.
type Origin string

const (
	// OriginDependency marks entries unpacked from dependency archives.
	OriginDependency Origin = "dependency"
	// OriginMain marks entries from the main compiled output directory.
	OriginMain Origin = "main"
	// OriginTest marks entries from the test compiled output directory.
	OriginTest Origin = "test"
)

// Entry is one element yielded by a directory walk.
type Entry struct {
	Origin Origin
	Root   Path
	Path   Path
	// Rel is relative to Root and always slash separated. The root itself is ".".
	Rel   string
	IsDir bool
	Size  int64
}

// Root is a directory to walk together with the origin its entries get.
type Root struct {
	Path   Path
	Origin Origin
}
