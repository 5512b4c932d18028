package comments

// Thread is a top-level comment with its direct and nested replies in order.
type Thread struct {
	Comment Comment
	Replies []Comment
}

// Threads groups comments under their top-level ancestor, keeping input
// order. Replies whose parent is missing become their own thread.
func Threads(list []Comment) []Thread {
	byID := make(map[string]Comment, len(list))
	for _, c := range list {
		byID[c.ID] = c
	}

	root := func(c Comment) string {
		seen := map[string]bool{}
		for c.IsReply() && !seen[c.ID] {
			seen[c.ID] = true
			parent, ok := byID[*c.ParentCommentID]
			if !ok {
				break
			}
			c = parent
		}
		return c.ID
	}

	var threads []Thread
	index := map[string]int{}
	for _, c := range list {
		id := root(c)
		if i, ok := index[id]; ok {
			if id == c.ID {
				continue
			}
			threads[i].Replies = append(threads[i].Replies, c)
			continue
		}
		index[id] = len(threads)
		if id == c.ID {
			threads = append(threads, Thread{Comment: c})
		} else {
			threads = append(threads, Thread{Comment: byID[id], Replies: []Comment{c}})
		}
	}
	return threads
}
