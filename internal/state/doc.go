// Package state provides latest-value slots with replay, and the three-slot
// session State built from them.
//
//	sub := st.Credentials.Subscribe(func(c *credentials.Set) {
//	    if c == nil {
//	        fmt.Println("signed out")
//	    }
//	})
//	defer sub.Unsubscribe()
package state
