package queue_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/okian/snapdash/internal/adapters/mq/queue"
	. "github.com/smartystreets/goconvey/convey"
)

func TestInMemoryQueue(t *testing.T) {
	Convey("Given a fresh in-memory queue", t, func() {
		q := queue.NewInMemoryQueue()
		ctx := context.Background()

		Convey("Enqueued submissions come back out in order", func() {
			So(q.Enqueue(ctx, queue.Submission{ID: "s1"}), ShouldBeTrue)
			So(q.Enqueue(ctx, queue.Submission{ID: "s2"}), ShouldBeTrue)
			So(q.Len(ctx), ShouldEqual, 2)

			out := q.Dequeue(ctx)
			first := <-out
			second := <-out
			So(first.ID, ShouldEqual, "s1")
			So(second.ID, ShouldEqual, "s2")
		})

		Convey("Closing stops further enqueues", func() {
			So(q.Close(), ShouldBeNil)
			So(q.IsClosed(), ShouldBeTrue)
			So(q.Enqueue(ctx, queue.Submission{ID: "late"}), ShouldBeFalse)
		})

		Convey("Close is idempotent", func() {
			So(q.Close(), ShouldBeNil)
			So(q.Close(), ShouldBeNil)
		})

		Convey("The dequeue channel closes after the queue drains", func() {
			So(q.Enqueue(ctx, queue.Submission{ID: "s1"}), ShouldBeTrue)
			So(q.Close(), ShouldBeNil)

			out := q.Dequeue(ctx)
			sub, ok := <-out
			So(ok, ShouldBeTrue)
			So(sub.ID, ShouldEqual, "s1")

			select {
			case _, ok := <-out:
				So(ok, ShouldBeFalse)
			case <-time.After(time.Second):
				So("dequeue channel never closed", ShouldBeEmpty)
			}
		})
	})

	Convey("Given a queue with capacity two", t, func() {
		q := queue.NewInMemoryQueue(queue.WithCapacity(2), queue.WithBufferSize(2))
		ctx := context.Background()

		Convey("The third enqueue reports backpressure without blocking", func() {
			So(q.Enqueue(ctx, queue.Submission{ID: "s1"}), ShouldBeTrue)
			So(q.Enqueue(ctx, queue.Submission{ID: "s2"}), ShouldBeTrue)
			So(q.Enqueue(ctx, queue.Submission{ID: "s3"}), ShouldBeFalse)
			So(q.Len(ctx), ShouldEqual, 2)
		})

		Convey("Draining frees capacity for new submissions", func() {
			So(q.Enqueue(ctx, queue.Submission{ID: "s1"}), ShouldBeTrue)
			So(q.Enqueue(ctx, queue.Submission{ID: "s2"}), ShouldBeTrue)

			out := q.Dequeue(ctx)
			<-out
			So(q.Enqueue(ctx, queue.Submission{ID: "s3"}), ShouldBeTrue)
		})
	})

	Convey("Given a cancelled dequeue context", t, func() {
		q := queue.NewInMemoryQueue()
		ctx, cancel := context.WithCancel(context.Background())

		out := q.Dequeue(ctx)
		So(q.Enqueue(context.Background(), queue.Submission{ID: "s1"}), ShouldBeTrue)
		<-out
		cancel()

		Convey("The consumer channel shuts down", func() {
			So(q.Enqueue(context.Background(), queue.Submission{ID: "s2"}), ShouldBeTrue)
			select {
			case _, ok := <-out:
				So(ok, ShouldBeFalse)
			case <-time.After(time.Second):
				So("dequeue channel never closed", ShouldBeEmpty)
			}
		})
	})

	Convey("Given many concurrent producers", t, func() {
		q := queue.NewInMemoryQueue(queue.WithCapacity(1000), queue.WithBufferSize(1000))
		ctx := context.Background()

		const n = 100
		var wg sync.WaitGroup
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				q.Enqueue(ctx, queue.Submission{ID: fmt.Sprintf("s-%d", i)})
			}(i)
		}
		wg.Wait()

		Convey("All submissions eventually arrive at the consumer", func() {
			out := q.Dequeue(ctx)
			seen := make(map[string]struct{}, n)
			timeout := time.After(2 * time.Second)
			for len(seen) < n {
				select {
				case sub := <-out:
					seen[sub.ID] = struct{}{}
				case <-timeout:
					So(len(seen), ShouldEqual, n)
					return
				}
			}
			So(len(seen), ShouldEqual, n)
		})
	})
}
