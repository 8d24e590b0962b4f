package commons

const (
	SEPARATOR = "<|||>"

	// signin surface every unauthenticated request is pointed at
	SIGN_IN_ROUTE = "/auth"
)
