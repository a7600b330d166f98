package builder_test

import (
	"context"
	"fmt"

	"github.com/xraph/taskhub/builder"
	"github.com/xraph/taskhub/middleware"
	"github.com/xraph/taskhub/task"
)

func Example() {
	b := builder.New(builder.WithLogger(discardLogger()))
	_ = b.AddActivity(task.NewActivity("SendGreeting", "1", func() *task.Func[greeting, string] {
		return task.NewFunc(sendGreeting)
	}))
	_ = b.UseActivityMiddleware(middleware.Named("logging", middleware.Logging(discardLogger())))

	eng := &fakeEngine{}
	if err := b.Build(context.Background(), eng); err != nil {
		fmt.Println(err)
		return
	}

	out, _ := eng.dispatchActivity(context.Background(), "SendGreeting", "1", []byte(`{"name":"Ada"}`))
	fmt.Println(string(out))
	fmt.Println(eng.activities.Identities())
	// Output:
	// "hello Ada"
	// [*middleware.ActivityTracer *middleware.ActivityInjector logging taskhub.failures taskhub.recover]
}
