package viz

import (
	"math"

	"github.com/san-kum/dynstep/internal/dynamo"
	"github.com/san-kum/dynstep/internal/physics"
)

// Scene draws one state of a scenario.
type Scene struct {
	// Bounds returns the world box to show for the whole trajectory.
	Bounds func(tr *dynamo.Trajectory) (minX, maxX, minY, maxY float64)
	// Draw renders state index i; earlier states are available for trails.
	Draw func(c *Canvas, v Viewport, tr *dynamo.Trajectory, i int)
}

// trailLen is how many past positions point-mass scenes keep on screen.
const trailLen = 400

// SceneFor picks a drawing for the system, falling back to a phase plot of
// the first two components.
func SceneFor(sys dynamo.System) Scene {
	switch s := sys.(type) {
	case *physics.Pendulum:
		return pendulumScene(s)
	case *physics.Projectile:
		return pathScene(0, 1, true)
	case *physics.Orbit:
		return orbitScene(s)
	case *physics.RollingDisk:
		return rollingScene(s)
	case *physics.String:
		return stringScene(s)
	}
	if sys.Dim() >= 2 {
		return pathScene(0, 1, false)
	}
	return seriesScene()
}

func pendulumScene(p *physics.Pendulum) Scene {
	return Scene{
		Bounds: func(*dynamo.Trajectory) (float64, float64, float64, float64) {
			return -p.Length, p.Length, -p.Length, p.Length
		},
		Draw: func(c *Canvas, v Viewport, tr *dynamo.Trajectory, i int) {
			for j := max(0, i-trailLen/4); j < i; j++ {
				c.Set(v.Map(p.Bob(tr.States[j])))
			}
			px, py := v.Map(0, 0)
			bx, by := v.Map(p.Bob(tr.States[i]))
			c.DrawLine(px, py, bx, by)
			c.Dot(bx, by, 1)
		},
	}
}

// pathScene draws the (xi, yi) trajectory up to the current state.
func pathScene(xi, yi int, ground bool) Scene {
	return Scene{
		Bounds: func(tr *dynamo.Trajectory) (float64, float64, float64, float64) {
			minX, maxX, minY, maxY := componentBounds(tr, xi, yi)
			if ground {
				minY = math.Min(minY, 0)
			}
			return minX, maxX, minY, maxY
		},
		Draw: func(c *Canvas, v Viewport, tr *dynamo.Trajectory, i int) {
			if ground {
				minX, maxX, _, _ := componentBounds(tr, xi, yi)
				x0, y0 := v.Map(minX, 0)
				x1, _ := v.Map(maxX, 0)
				c.DrawLine(x0, y0, x1, y0)
			}
			for j := max(0, i-trailLen); j < i; j++ {
				c.Set(v.Map(tr.States[j][xi], tr.States[j][yi]))
			}
			x, y := v.Map(tr.States[i][xi], tr.States[i][yi])
			c.Dot(x, y, 1)
		},
	}
}

func orbitScene(o *physics.Orbit) Scene {
	path := pathScene(0, 1, false)
	return Scene{
		Bounds: func(tr *dynamo.Trajectory) (float64, float64, float64, float64) {
			minX, maxX, minY, maxY := path.Bounds(tr)
			for _, a := range o.Attractors {
				minX, maxX = math.Min(minX, a.X), math.Max(maxX, a.X)
				minY, maxY = math.Min(minY, a.Y), math.Max(maxY, a.Y)
			}
			return minX, maxX, minY, maxY
		},
		Draw: func(c *Canvas, v Viewport, tr *dynamo.Trajectory, i int) {
			for _, a := range o.Attractors {
				x, y := v.Map(a.X, a.Y)
				c.Dot(x, y, 2)
			}
			path.Draw(c, v, tr, i)
		},
	}
}

func rollingScene(r *physics.RollingDisk) Scene {
	run := r.Height / math.Tan(r.Incline)
	sin, cos := math.Sin(r.Incline), math.Cos(r.Incline)
	return Scene{
		Bounds: func(*dynamo.Trajectory) (float64, float64, float64, float64) {
			return -r.Radius, run + r.Radius, 0, r.Height + 2*r.Radius
		},
		Draw: func(c *Canvas, v Viewport, tr *dynamo.Trajectory, i int) {
			tx, ty := v.Map(0, r.Height)
			bx, by := v.Map(run, 0)
			c.DrawLine(tx, ty, bx, by)

			s, beta := tr.States[i][0], tr.States[i][1]
			// centre sits one radius above the contact point, normal to the slope
			cx := s*cos + r.Radius*sin
			cy := r.Height - s*sin + r.Radius*cos
			const segments = 24
			for k := 0; k < segments; k++ {
				a0 := 2 * math.Pi * float64(k) / segments
				a1 := 2 * math.Pi * float64(k+1) / segments
				x0, y0 := v.Map(cx+r.Radius*math.Cos(a0), cy+r.Radius*math.Sin(a0))
				x1, y1 := v.Map(cx+r.Radius*math.Cos(a1), cy+r.Radius*math.Sin(a1))
				c.DrawLine(x0, y0, x1, y1)
			}
			// rolling down the slope turns the body clockwise
			hx, hy := v.Map(cx, cy)
			ex, ey := v.Map(cx+r.Radius*math.Sin(beta), cy+r.Radius*math.Cos(beta))
			c.DrawLine(hx, hy, ex, ey)
		},
	}
}

func stringScene(s *physics.String) Scene {
	return Scene{
		Bounds: func(tr *dynamo.Trajectory) (float64, float64, float64, float64) {
			amp := 0.0
			for _, x := range tr.States {
				for _, y := range x[:s.Points] {
					amp = math.Max(amp, math.Abs(y))
				}
			}
			if amp == 0 {
				amp = 1
			}
			return 0, s.Length, -amp, amp
		},
		Draw: func(c *Canvas, v Viewport, tr *dynamo.Trajectory, i int) {
			x := tr.States[i]
			dx := s.Dx()
			px, py := v.Map(0, x[0])
			for k := 1; k < s.Points; k++ {
				nx, ny := v.Map(float64(k)*dx, x[k])
				c.DrawLine(px, py, nx, ny)
				c.Dot(nx, ny, 0)
				px, py = nx, ny
			}
		},
	}
}

// seriesScene plots component 0 against time.
func seriesScene() Scene {
	return Scene{
		Bounds: func(tr *dynamo.Trajectory) (float64, float64, float64, float64) {
			minY, maxY := math.Inf(1), math.Inf(-1)
			for _, x := range tr.States {
				minY, maxY = math.Min(minY, x[0]), math.Max(maxY, x[0])
			}
			return tr.Times[0], tr.Times[tr.Len()-1], minY, maxY
		},
		Draw: func(c *Canvas, v Viewport, tr *dynamo.Trajectory, i int) {
			for j := 0; j <= i; j++ {
				c.Set(v.Map(tr.Times[j], tr.States[j][0]))
			}
		},
	}
}

func componentBounds(tr *dynamo.Trajectory, xi, yi int) (minX, maxX, minY, maxY float64) {
	minX, minY = math.Inf(1), math.Inf(1)
	maxX, maxY = math.Inf(-1), math.Inf(-1)
	for _, x := range tr.States {
		minX, maxX = math.Min(minX, x[xi]), math.Max(maxX, x[xi])
		minY, maxY = math.Min(minY, x[yi]), math.Max(maxY, x[yi])
	}
	return minX, maxX, minY, maxY
}
