// Package taskpool runs batches of slow, independent work items under a
// hard concurrency cap.
//
// A Pool admits at most capacity tasks at a time; Submit blocks until a
// slot frees up, which gives natural backpressure when a batch is much
// larger than the cap. Each task races its work against a per-task
// deadline. Work that overruns the deadline is reported as timed out and
// its slot is reclaimed immediately; the work goroutine itself keeps its
// cancelled context and unwinds cooperatively.
//
// Every submitted task resolves to exactly one terminal outcome
// (success, task_error, or timeout_error), delivered through its Handle.
// Panics inside work are caught and reported as task errors with the
// stack trace attached, so one bad image cannot take down a batch.
//
// Usage:
//
//	pool, err := taskpool.New[vlm.Evaluation](50,
//		taskpool.WithTimeout(30*time.Minute),
//	)
//	if err != nil {
//		return err
//	}
//
//	handle, err := pool.Submit(ctx, func(ctx context.Context) (vlm.Evaluation, error) {
//		return client.ScoreImage(ctx, path)
//	}, taskpool.Meta{Identifier: path, Payload: path})
//	if err != nil {
//		return err
//	}
//
//	res, err := handle.Wait(ctx)
//	if err != nil {
//		return err
//	}
//	if res.Status == taskpool.StatusSucceeded {
//		fmt.Println(res.Value.Score)
//	}
//
//	pool.WaitIdle(ctx, time.Second)
//	pool.Shutdown(ctx)
package taskpool
