package buffer

import "errors"

// ErrPoolExhausted is returned by NewPage/FetchPage when every frame is
// pinned and no victim can be found.
var ErrPoolExhausted = errors.New("buffer: pool exhausted, every frame pinned")
