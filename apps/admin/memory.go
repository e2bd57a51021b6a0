package main

import (
	"fmt"
	"text/tabwriter"
	"time"
)

func (cli *commandLine) memory(action, userID, key string) error {
	store := cli.memories.For(userID)

	switch action {
	case "list":
		w := tabwriter.NewWriter(cli.out, 0, 4, 2, ' ', 0)
		_, _ = fmt.Fprintln(w, "ID\tCATEGORY\tKEY\tVALUE\tUPDATED")
		for _, it := range store.Memories() {
			_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				it.ID, it.Category, it.Key, it.Value, it.LastUpdated.Format(time.RFC3339))
		}
		return w.Flush()
	case "get":
		if key == "" {
			return fmt.Errorf("get requires -key")
		}
		val, ok := store.Get(key)
		if !ok {
			return fmt.Errorf("%q: no such memory", key)
		}
		cli.printf("%s\n", val)
		return nil
	case "clear":
		store.Clear()
		cli.printf("memories cleared\n")
		return nil
	}
	return fmt.Errorf("%q: no such memory command", action)
}
