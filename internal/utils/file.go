package utils

import "os"

// PathExists reports whether path names an existing file or directory. A
// stat failure other than non-existence counts as existing, so the caller
// goes on to open the path and gets the real error there.
func PathExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil || !os.IsNotExist(err)
}
