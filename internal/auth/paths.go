package auth

// UserPath returns the active user type's path segment followed by "/",
// or "" without an active user type.
func (m *Manager) UserPath() string {
	ut := m.state.UserType.Current()
	if ut == nil {
		return ""
	}
	return ut.Path + "/"
}

// APIPath returns the API base and API path, each followed by "/" when set.
func (m *Manager) APIPath() string {
	opts := m.Options()

	var path string
	if opts.APIBase != "" {
		path += opts.APIBase + "/"
	}
	if opts.APIPath != "" {
		path += opts.APIPath + "/"
	}
	return path
}

// ServerPath is the prefix of every token API request.
func (m *Manager) ServerPath() string {
	return m.APIPath() + m.UserPath()
}
