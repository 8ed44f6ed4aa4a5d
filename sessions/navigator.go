package sessions

// Navigator receives the locations the session manager sends the user to:
// a role home after sign-in, the login page after logout or expiry.
type Navigator interface {
	Navigate(path string)
}

type NavigatorFunc func(path string)

func (f NavigatorFunc) Navigate(path string) {
	f(path)
}

type NopNavigator struct{}

func (NopNavigator) Navigate(string) {}
