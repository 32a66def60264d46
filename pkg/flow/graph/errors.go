package graph

import "errors"

var (
	// ErrAlreadyStarted is returned when a node is started twice or a
	// listener registers after start.
	ErrAlreadyStarted = errors.New("node already started")

	// ErrDuplicateListener is returned when a listener id registers twice.
	ErrDuplicateListener = errors.New("listener already registered")

	// ErrNoInputs is returned when a computation is built without inputs.
	ErrNoInputs = errors.New("computation has no inputs")

	// ErrNilNode is returned when a nil node is passed as an input.
	ErrNilNode = errors.New("nil node")

	// ErrSizeMismatch is returned when zipped inputs disagree on their size.
	ErrSizeMismatch = errors.New("zip inputs have different sizes")

	// ErrSizeOverflow is returned when a join's cross product does not fit in uint64.
	ErrSizeOverflow = errors.New("join size overflows")

	// ErrNotConstant is returned when a secondary input of a summarize or
	// full stream node has a size other than 1.
	ErrNotConstant = errors.New("secondary input must have size 1")

	// ErrNoTask is returned when a computation is built without a task kind.
	ErrNoTask = errors.New("computation has no task kind")

	// ErrNilDispatcher is returned by Run without a dispatcher.
	ErrNilDispatcher = errors.New("nil dispatcher")

	// ErrBadSequence is returned when a producer emits a sequence number
	// outside of its size.
	ErrBadSequence = errors.New("sequence number out of range")
)
