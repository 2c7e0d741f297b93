package timecodec

import "errors"

// ErrFormat reports text that is not three colon-separated integers.
var ErrFormat = errors.New("time is not in the format H:MM:SS")
